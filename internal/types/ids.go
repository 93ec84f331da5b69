package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies one audit run. It is a UUID v4 string.
type ID string

// NewID generates a new random ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID parses s as a UUID and returns it in canonical form.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("ID cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID format: %w", err)
	}
	return ID(parsed.String()), nil
}

// Validate checks that the ID is a well-formed UUID.
func (id ID) Validate() error {
	_, err := ParseID(string(id))
	return err
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ""
}
