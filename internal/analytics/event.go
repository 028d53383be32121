package analytics

import "time"

// Topics the shortener publishes to.
const (
	TopicURLCreated  = "url.created"
	TopicURLAccessed = "url.accessed"
)

// URLCreatedEvent is emitted after a short URL is stored.
type URLCreatedEvent struct {
	Code     string `json:"code"`
	RawURL   string `json:"rawUrl"`
	Username string `json:"username,omitempty"`
	// ExpireTime is Unix milliseconds; zero never expires.
	ExpireTime int64     `json:"expireTime"`
	CreatedAt  time.Time `json:"createdAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
}

// URLAccessedEvent is emitted after a short URL is resolved.
type URLAccessedEvent struct {
	Code       string    `json:"code"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
}
