package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHash_Format(t *testing.T) {
	t.Parallel()

	hash, err := Hash("pk_live_a1b2c3_0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("hash should have 6 parts, got %d: %s", len(parts), hash)
	}
	if parts[1] != "argon2id" || parts[2] != "v=19" || parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("unexpected hash header: %s", hash)
	}
}

func TestHash_SaltedAndVerifiable(t *testing.T) {
	t.Parallel()

	h1, err := Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	h2, err := Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h1 == h2 {
		t.Error("hashes of the same secret should differ by salt")
	}

	for _, h := range []string{h1, h2} {
		ok, err := Verify("same-secret", h)
		if err != nil || !ok {
			t.Errorf("Verify = %v, %v; want true", ok, err)
		}
	}

	ok, err := Verify("other-secret", h1)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("Verify should reject a different secret")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv", ErrInvalidHash},
		{"argon2i", "$argon2i$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad params", "$argon2id$v=19$m=x,t=3,p=4$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA", ErrInvalidHash},
		{"old version", "$argon2id$v=16$m=65536,t=3,p=4$c2FsdA$aGFzaA", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Verify("secret", tt.hash); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	a := CacheKey("pk_live_a1b2c3_0123456789abcdef0123456789abcdef")
	b := CacheKey("pk_live_a1b2c3_0123456789abcdef0123456789abcdee")

	if len(a) != 32 {
		t.Errorf("CacheKey length = %d, want 32", len(a))
	}
	if a == b {
		t.Error("different keys should map to different cache keys")
	}
	if a != CacheKey("pk_live_a1b2c3_0123456789abcdef0123456789abcdef") {
		t.Error("CacheKey should be deterministic")
	}
}
