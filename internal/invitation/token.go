// internal/invitation/token.go
//
// Invitation token generation.
//
// Tokens are bearer secrets: whoever presents one can accept the
// invitation.  256 bits from crypto/rand, hex encoded, comfortably above
// the 128-bit guessing-resistance floor.  The unique index on
// invitations.token turns the astronomically-unlikely collision into a
// retryable insert error rather than a silent overwrite.

package invitation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// NewToken returns a fresh 64-character hex token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invitation token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
