// Package models defines the persistent records of the message archive.
package models

import "time"

// Message is one archived channel message.
// Display fields are written once by the scraper; the like/read/trashed/tags
// flags are the only fields mutated afterwards.
type Message struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID      string     `gorm:"index:idx_channel_message,unique" json:"channel_id"`
	ChannelName    string     `gorm:"index" json:"channel_name"`
	MessageID      string     `gorm:"index:idx_channel_message,unique" json:"message_id"`
	GlobalID       string     `json:"global_id,omitempty"`
	DatetimeUTC    string     `json:"datetime_utc,omitempty"`
	DatetimeLocal  string     `gorm:"index" json:"datetime_local"`
	SenderID       string     `json:"sender_id,omitempty"`
	SenderName     string     `json:"sender_name"`
	Text           string     `json:"text,omitempty"`
	TextTranslated string     `json:"text_translated"`
	Links          string     `json:"links,omitempty"`
	MediaType      string     `json:"media_type"`
	Views          int        `json:"views"`
	Forwards       int        `json:"forwards"`
	MessageHash    string     `json:"message_hash,omitempty"`
	AddedAt        string     `json:"added_at,omitempty"`
	Liked          bool       `gorm:"column:like" json:"like"`
	Read           bool       `gorm:"column:read" json:"read"`
	TrashedAt      *time.Time `json:"trashed_at"`
	Tags           string     `json:"tags"`
}

// Channel is one backed-up channel with its fetch bookkeeping.
type Channel struct {
	ID                  int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID           string  `json:"channel_id,omitempty"`
	ChannelName         string  `gorm:"uniqueIndex" json:"channel_name"`
	TotalMessages       int     `json:"total_messages"`
	LastBackupTimestamp string  `json:"last_backup_timestamp,omitempty"`
	FetchStatus         *string `gorm:"column:fetchstatus" json:"fetchstatus"`
	FetchedStartedAt    *string `gorm:"column:fetchedStartedAt" json:"fetchedStartedAt"`
	FetchedEndedAt      *string `gorm:"column:fetchedEndedAt" json:"fetchedEndedAt"`
}

// Tag is the reverse index from a tag name to the messages carrying it.
// MessageIDs is a comma-joined id list, maintained by the messages repository.
type Tag struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string `gorm:"uniqueIndex" json:"name"`
	MessageIDs string `json:"message_ids"`
}

// channel fetch status values written by the scraper
const (
	FetchStatusProcessing = "processing"
	FetchStatusDone       = "done"
	FetchStatusFailed     = "failed"
)

// TimestampFormat is the local timestamp layout used across the archive.
const TimestampFormat = "2006-01-02 15:04:05"
