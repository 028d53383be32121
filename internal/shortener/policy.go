package shortener

import (
	"fmt"
	"math"
	"time"
)

// ExpirationPolicy decides whether a requested TTL is allowed for a caller
// and computes the absolute expiry to persist.
type ExpirationPolicy struct {
	guestMaxTTL uint64
	minTTL      uint64
	now         func() time.Time
}

// NewExpirationPolicy creates a policy from cfg reading time from now.
func NewExpirationPolicy(cfg Config, now func() time.Time) *ExpirationPolicy {
	if now == nil {
		now = time.Now
	}

	return &ExpirationPolicy{
		guestMaxTTL: uint64(cfg.GuestMaxTTL / time.Second),
		minTTL:      uint64(cfg.MinTTL / time.Second),
		now:         now,
	}
}

// Evaluate returns the absolute expiry in Unix milliseconds, or 0 for a
// record that never expires. A nil ttl means "never expire".
//
// A zero or beyond-guest-maximum TTL requires an authenticated caller. A
// non-zero TTL below the minimum is rejected for everyone; zero is exempt
// from the minimum.
func (p *ExpirationPolicy) Evaluate(ttl *uint64, caller *User) (int64, error) {
	var seconds uint64
	if ttl != nil {
		seconds = *ttl
	}

	if (seconds == 0 || seconds > p.guestMaxTTL) && caller == nil {
		return 0, NeedAuth()
	}

	if seconds != 0 && seconds < p.minTTL {
		return 0, TTLError(fmt.Sprintf("The TTL must be greater than %d seconds.", p.minTTL))
	}

	if seconds == 0 {
		return 0, nil
	}

	nowMillis := p.now().UnixMilli()
	if seconds > uint64(math.MaxInt64-nowMillis)/1000 {
		return 0, TTLError("The TTL is too large.")
	}

	return nowMillis + int64(seconds)*1000, nil
}
