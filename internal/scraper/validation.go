package scraper

import "errors"

// validation errors
var (
	ErrInvalidDaysBack = errors.New("days_back must be at least 1")
	ErrInvalidLimit    = errors.New("limit must be at least 1")
)

// defaults applied when a field is omitted
const (
	DefaultDaysBack = 3
	DefaultLimit    = 1000
)

// StartRequest represents a request to start a scrape pass.
type StartRequest struct {
	// DaysBack - how many days of history to fetch per channel.
	DaysBack int `json:"days_back,omitempty"`

	// Limit - maximum messages to fetch per channel.
	Limit int `json:"limit,omitempty"`
}

// Validate fills in defaults for omitted fields and rejects
// out-of-range values.
func (r *StartRequest) Validate() error {
	if r.DaysBack == 0 {
		r.DaysBack = DefaultDaysBack
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}

	if r.DaysBack < 1 {
		return ErrInvalidDaysBack
	}
	if r.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}
