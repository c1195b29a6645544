// Package auth issues, parses and verifies API keys.
//
// A key looks like pk_{env}_{prefix}_{secret}. The prefix is stored in clear
// for lookup; the whole key is only ever stored as an argon2id hash.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Key part lengths in hex characters.
const (
	PrefixLen = 6
	SecretLen = 32
)

// Key environments.
const (
	EnvLive = "live"
	EnvTest = "test"
)

// ErrInvalidKeyFormat indicates a string that cannot be an API key.
var ErrInvalidKeyFormat = errors.New("invalid API key format")

var keyPattern = regexp.MustCompile(`^pk_(live|test)_([a-f0-9]{6})_([a-f0-9]{32})$`)

// Key is a freshly issued API key. Plaintext is shown to the caller once.
type Key struct {
	Plaintext string
	Hash      string
	Prefix    string
}

// NewKey issues a key for env. Unknown environments issue live keys.
func NewKey(env string) (*Key, error) {
	if env != EnvTest {
		env = EnvLive
	}

	prefix, err := randomHex(PrefixLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	secret, err := randomHex(SecretLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := "pk_" + env + "_" + prefix + "_" + secret
	hash, err := Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &Key{Plaintext: plaintext, Hash: hash, Prefix: prefix}, nil
}

// ParsedKey holds the parts of a well-formed key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// Parse splits key into its parts.
func Parse(key string) (ParsedKey, error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return ParsedKey{}, ErrInvalidKeyFormat
	}
	return ParsedKey{Env: m[1], Prefix: m[2], Secret: m[3]}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
