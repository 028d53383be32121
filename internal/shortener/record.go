package shortener

import (
	"encoding/json"
	"errors"
)

// Record is the persisted mapping of a short identifier to its destination.
type Record struct {
	RawURL string `json:"raw_url"`
	// Username is empty for records created by guests.
	Username string `json:"username"`
	// InsertTime and ExpireTime are Unix milliseconds; ExpireTime 0 never expires.
	InsertTime int64 `json:"insert_time"`
	ExpireTime int64 `json:"expire_time"`
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	if r.RawURL == "" {
		return errors.New("record has no destination")
	}

	if r.ExpireTime != 0 && r.ExpireTime <= r.InsertTime {
		return errors.New("record expires before it was inserted")
	}

	return nil
}

// StoreExpireAt converts ExpireTime to the Unix-seconds marker the store
// expects, rounding up so the store never drops a record early.
func (r *Record) StoreExpireAt() int64 {
	if r.ExpireTime == 0 {
		return 0
	}

	return (r.ExpireTime + 999) / 1000
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses and validates a stored record.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// User is an API key holder, keyed by APIKey in the users namespace.
type User struct {
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

// DecodeUser parses a stored user.
func DecodeUser(data []byte) (*User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}

	if u.Username == "" {
		return nil, errors.New("user has no username")
	}

	return &u, nil
}

// EncodeUser serializes a user for storage.
func EncodeUser(u User) ([]byte, error) {
	if u.Username == "" {
		return nil, errors.New("user has no username")
	}

	return json.Marshal(u)
}
