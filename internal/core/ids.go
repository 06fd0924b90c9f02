package core

import "github.com/google/uuid"

// IDGenerator produces identifiers for new entities.
type IDGenerator func() string

// NewID returns a random UUIDv4 string. Identifiers are never reused.
func NewID() string {
	return uuid.NewString()
}
