package common

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TimeLayout is the timestamp rendering used for record bookkeeping fields.
// RFC 3339 in UTC with a fixed-width fraction keeps timestamps
// lexicographically ordered, so recency can be decided with a plain string
// comparison. RFC3339Nano would not do: it trims trailing zeros, and a
// variable-width fraction breaks the ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NowStamp returns the current time formatted with TimeLayout.
func NowStamp() string {
	return time.Now().UTC().Format(TimeLayout)
}

// MakeRandHexString returns a hex string built from size random bytes.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes the buffer in place. Safe to call with nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
