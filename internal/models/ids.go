package models

import "github.com/google/uuid"

// NewID returns a fresh document identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id is a syntactically valid document identifier.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
