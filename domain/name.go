package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// NormalizeDisplayName trims the raw handshake input and collapses every
// internal whitespace run into a single underscore, so names stay a single
// token on the wire. Returns "" when nothing printable is left.
func NormalizeDisplayName(raw string) string {
	return strings.Join(strings.Fields(raw), "_")
}

// PlaceholderName generates a fallback name of the form UserNNNN for
// clients that stay silent at the name prompt. Uniqueness is not
// guaranteed, the registry tolerates name collisions.
func PlaceholderName() string {
	return fmt.Sprintf("User%d", 1000+rand.IntN(9000))
}
