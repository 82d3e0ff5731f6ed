package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID identifies uploads and column mappings. New IDs are UUID v7 so they
// sort roughly by creation time.
type ID string

// NewID returns a fresh identifier
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// ParseID accepts an identifier from a URL or form field. Anything that is
// not a UUID is rejected before it reaches a repository.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("id cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(s), nil
}

func (id ID) String() string {
	return string(id)
}

// IsEmpty reports whether the ID was never assigned
func (id ID) IsEmpty() bool {
	return id == ""
}

// Short returns the first eight hex characters, for compact display.
func (id ID) Short() string {
	s := strings.ReplaceAll(string(id), "-", "")
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
