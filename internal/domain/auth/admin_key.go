// Package auth hashes and verifies the admin API key that guards the bridge's
// /admin routes.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidKey is returned when a presented key does not match.
var ErrInvalidKey = errors.New("invalid api key")

// ErrUnknownHashType is returned when a stored hash is not argon2id.
var ErrUnknownHashType = errors.New("unknown hash type")

// keyPrefix marks generated admin keys.
const keyPrefix = "cc_"

// argon2idParams defines OWASP minimum parameters for Argon2id.
// Memory: 46 MiB, Iterations: 1, Parallelism: 1
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// GenerateKey returns a new random admin key.
func GenerateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// HashKey returns an Argon2id hash of the raw key in PHC format:
// $argon2id$v=19$m=47104,t=1,p=1$<salt>$<hash>
func HashKey(rawKey string) (string, error) {
	if rawKey == "" {
		return "", ErrInvalidKey
	}
	return argon2id.CreateHash(rawKey, argon2idParams)
}

// VerifyKey reports whether rawKey matches storedHash. It returns
// ErrUnknownHashType for anything that is not an argon2id PHC string.
func VerifyKey(rawKey, storedHash string) (bool, error) {
	if !strings.HasPrefix(storedHash, "$argon2id$") {
		return false, ErrUnknownHashType
	}
	if rawKey == "" {
		return false, nil
	}
	return safeArgon2idCompare(rawKey, storedHash)
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery. The argon2 library panics on hashes with t=0 or p=0.
func safeArgon2idCompare(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}
