package model

import "time"

// ShortLink maps a short code to its destination. Rows are never updated after creation.
type ShortLink struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	LongURL   string     `json:"long_url" gorm:"type:text;not null"`
	ShortCode string     `json:"short_code" gorm:"size:64;not null;uniqueIndex:idx_short_code"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null"`
	ExpiresAt *time.Time `json:"expires_at"`
	UserID    string     `json:"user_id" gorm:"size:255;not null;index:idx_user_id"`
}

// TableName keeps the table name stable across dialects.
func (ShortLink) TableName() string {
	return "short_urls"
}

// IsLive reports whether the link may still be used for redirects at now.
func (l *ShortLink) IsLive(now time.Time) bool {
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}
