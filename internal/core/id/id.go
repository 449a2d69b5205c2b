// Package id provides identifiers for ledger rows: accounts, vouchers,
// batches, documents and parties all use time-ordered UUIDv7 values.
package id

import (
	"bytes"

	"github.com/google/uuid"
)

// ID is a UUID. It marshals to its canonical string form in JSON and SQL.
type ID = uuid.UUID

// New returns a UUIDv7. Its leading 48 bits hold the creation time, so
// entries, movements and vouchers inserted in one request sort in
// insertion order.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse reads an ID from a path or query parameter.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse for fixtures.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether v is the zero ID, the marker for an unset account leg.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Less orders IDs bytewise. For UUIDv7 this is creation order.
func Less(a, b ID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
