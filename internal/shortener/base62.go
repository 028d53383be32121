package shortener

import (
	"errors"
	"math"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var errInvalidBase62 = errors.New("invalid base62 string")

// EncodeBase62 encodes n with the 0-9A-Za-z alphabet.
func EncodeBase62(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [11]byte // 62^11 > 2^64

	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base62Alphabet[n%62]
		n /= 62
	}

	return string(buf[i:])
}

// DecodeBase62 is the inverse of EncodeBase62.
func DecodeBase62(s string) (uint64, error) {
	if s == "" || len(s) > 11 {
		return 0, errInvalidBase62
	}

	var n uint64

	for i := 0; i < len(s); i++ {
		d := base62Digit(s[i])
		if d < 0 {
			return 0, errInvalidBase62
		}

		if n > (math.MaxUint64-uint64(d))/62 {
			return 0, errInvalidBase62
		}

		n = n*62 + uint64(d)
	}

	return n, nil
}

// IsIdentifier reports whether s could have been produced by the allocator.
func IsIdentifier(s string) bool {
	_, err := DecodeBase62(s)

	return err == nil
}

func base62Digit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 36
	default:
		return -1
	}
}
