package utils

import "github.com/google/uuid"

// IsUUID reports whether s is a well-formed UUID. Handlers use this to map
// malformed identifiers to a clean not-found instead of a lookup failure.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
