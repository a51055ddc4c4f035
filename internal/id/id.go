// Package id generates and checks book identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generate returns a new random (version 4) UUID in its canonical string form.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return u.String(), nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate() string {
	id, err := Generate()
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
