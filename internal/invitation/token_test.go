// internal/invitation/token_test.go

package invitation

import (
	"encoding/hex"
	"testing"
)

func TestNewToken(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if len(tok) != tokenBytes*2 {
			t.Fatalf("token length = %d, want %d", len(tok), tokenBytes*2)
		}
		if _, err := hex.DecodeString(tok); err != nil {
			t.Fatalf("token not hex: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = struct{}{}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []Status{StatusAccepted, StatusExpired, StatusRevoked} {
		if !s.Terminal() {
			t.Errorf("%q must be terminal", s)
		}
	}
}
