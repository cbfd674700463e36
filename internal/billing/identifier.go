package billing

import "math/rand/v2"

const (
	IdentifierAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ123456789"
	IdentifierLength   = 6
)

// NewIdentifier returns a short client-facing invoice code. Uniqueness is
// enforced by the store; callers retry on collision.
func NewIdentifier() string {
	b := make([]byte, IdentifierLength)
	for i := range b {
		b[i] = IdentifierAlphabet[rand.IntN(len(IdentifierAlphabet))]
	}
	return string(b)
}
