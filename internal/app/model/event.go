package model

import "time"

// LinkEventType names a lifecycle transition of a short link.
type LinkEventType string

const (
	LinkCreated LinkEventType = "created"
	LinkDeleted LinkEventType = "deleted"
)

// LinkEvent is published when a link is created or deleted.
type LinkEvent struct {
	ID        string        `json:"id"`
	Type      LinkEventType `json:"type"`
	LinkID    int64         `json:"link_id"`
	ShortCode string        `json:"short_code,omitempty"`
	LongURL   string        `json:"long_url,omitempty"`
	UserID    string        `json:"user_id"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	LinkStreamName     = "LINKS"
	LinkStreamSubjects = "links.>"
	LinkStreamMaxBytes = 1024 * 1024 * 64 // 64MB
)

// Subject is the NATS subject the event is published on.
func (e LinkEvent) Subject() string {
	return "links." + string(e.Type)
}
