// Package auth tests cover hashing and token round trips.
package auth

import (
	"strings"
	"testing"
)

// TestHashVerifyRoundTrip hashes and verifies a password.
func TestHashVerifyRoundTrip(t *testing.T) {
	h, err := HashPassword("correct horse", DefaultHashParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(h, "argon2id$") {
		t.Fatalf("unexpected hash format: %s", h)
	}

	ok, err := VerifyPassword("correct horse", h)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify")
	}

	ok, err = VerifyPassword("wrong horse", h)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch to fail")
	}
}

// TestVerifyRejectsGarbage errors on unreadable stored hashes.
func TestVerifyRejectsGarbage(t *testing.T) {
	for _, h := range []string{"bcrypt$whatever", "argon2id$v=19$m=1,t=1,p=1$xx", "argon2id$v=7$m=1,t=1,p=1$AA$AA"} {
		if _, err := VerifyPassword("pw", h); err == nil {
			t.Fatalf("expected error for %q", h)
		}
	}
}

// TestHashesSalted ensures two hashes of one password differ.
func TestHashesSalted(t *testing.T) {
	p := DefaultHashParams()
	a, err := HashPassword("pw", p)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("pw", p)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}
