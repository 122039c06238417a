// Package auth covers credential mechanics: argon2id password hashes
// and the JWT tokens the HTTP API hands out. Permission decisions
// live in internal/access; this package only answers "who is this".
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashParams tunes argon2id. The defaults follow the common 64 MiB /
// 3 pass / 4 lane recommendation.
type HashParams struct {
	Memory  uint32
	Passes  uint32
	Lanes   uint8
	SaltLen uint32
	KeyLen  uint32
}

func DefaultHashParams() HashParams {
	return HashParams{
		Memory:  64 * 1024,
		Passes:  3,
		Lanes:   4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

var errHashFormat = errors.New("malformed password hash")

// HashPassword returns a PHC-style argon2id string:
// argon2id$v=19$m=65536,t=3,p=4$<salt_b64>$<key_b64>
func HashPassword(password string, p HashParams) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Passes, p.Memory, p.Lanes, p.KeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Passes, p.Lanes,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// VerifyPassword checks password against an encoded hash. A mismatch
// is (false, nil); errors mean the stored hash is unreadable.
func VerifyPassword(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}
	p, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.Passes, p.Memory, p.Lanes, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func decodeHash(s string) (HashParams, []byte, []byte, error) {
	var p HashParams
	parts := strings.Split(s, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return p, nil, nil, errHashFormat
	}

	var version int
	if n, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || n != 1 || version != argon2.Version {
		return p, nil, nil, errHashFormat
	}
	if n, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &p.Memory, &p.Passes, &p.Lanes); err != nil || n != 3 {
		return p, nil, nil, errHashFormat
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[3])
	if err != nil {
		return p, nil, nil, errHashFormat
	}
	key, err := enc.DecodeString(parts[4])
	if err != nil || len(key) < 16 {
		return p, nil, nil, errHashFormat
	}
	return p, salt, key, nil
}
