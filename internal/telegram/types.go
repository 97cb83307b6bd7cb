package telegram

import (
	"time"
)

// Channel represents a broadcast channel visible to the account
type Channel struct {
	ID         int64  // channel id
	AccessHash int64  // access hash for api calls
	Username   string // channel username (without @)
	Title      string // channel title
}

// Message represents a parsed telegram message
type Message struct {
	ID         int       // message id (unique within channel)
	ChannelID  int64     // channel id
	Text       string    // message text content
	Date       time.Time // message creation timestamp
	SenderID   int64     // poster id, 0 for anonymous channel posts
	SenderName string    // post author signature, if any
	Links      []string  // urls carried by entities or webpage previews
	MediaType  string    // text | photo | video | document | webpage | other
	Views      int       // view count
	Forwards   int       // forward count
}
