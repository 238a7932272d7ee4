package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewReference builds a human-readable reference number like
// "PO-20260831-a1b2c3d4". The random suffix keeps it collision-resistant
// under concurrent writers; no shared counter involved.
func NewReference(prefix string, now time.Time) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s-%s-%s",
		strings.ToUpper(prefix), now.UTC().Format("20060102"), hex.EncodeToString(b))
}
