package shortener

import (
	"errors"
	"time"
)

// Config holds the immutable policy constants of the shortener.
type Config struct {
	// IDMin and IDMax bound the sampled identifier integer: [IDMin, IDMax).
	IDMin uint64
	IDMax uint64

	// GuestMaxTTL is the longest lifetime an anonymous caller may request.
	GuestMaxTTL time.Duration
	// MinTTL is the shortest non-zero lifetime any caller may request.
	MinTTL time.Duration

	// MaxAllocAttempts caps identifier samples per created short URL. Samples
	// found taken and writes lost to a concurrent creator share the budget.
	MaxAllocAttempts int

	// BaseURL, when set, prefixes returned short URLs instead of the request host.
	BaseURL string
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		IDMin:            15_000_000,
		IDMax:            3_500_000_000_000,
		GuestMaxTTL:      30 * 24 * time.Hour,
		MinTTL:           60 * time.Second,
		MaxAllocAttempts: 16,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.IDMax <= c.IDMin:
		return errors.New("id range is empty")
	case c.MinTTL < time.Second:
		return errors.New("minimum ttl must be at least one second")
	case c.GuestMaxTTL < c.MinTTL:
		return errors.New("guest max ttl is below the minimum ttl")
	case c.MaxAllocAttempts < 1:
		return errors.New("max allocation attempts must be positive")
	}

	return nil
}
