// Package uuid generates request identifiers.
package uuid

import (
	"github.com/google/uuid"
)

// Generator creates time-ordered UUID strings.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string, or a random v4 if the clock read fails.
func (Generator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Valid reports whether s parses as a UUID. Inbound X-Request-ID values are
// only reused when they pass.
func Valid(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
