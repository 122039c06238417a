package access

import (
	"errors"
	"reflect"
	"testing"
)

// TestNormalizeFolder canonicalizes separators and rejects traversal.
func TestNormalizeFolder(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"reports", "reports"},
		{"/reports/", "reports"},
		{"reports//2024", "reports/2024"},
		{"./reports/./2024", "reports/2024"},
		{"a/b/c", "a/b/c"},
	}
	for _, tc := range cases {
		got, err := NormalizeFolder(tc.in)
		if err != nil {
			t.Fatalf("NormalizeFolder(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeFolder(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	for _, in := range []string{"", "   ", "/", "..", "a/../b", "a/.."} {
		if _, err := NormalizeFolder(in); !errors.Is(err, ErrBadPath) {
			t.Fatalf("NormalizeFolder(%q): expected ErrBadPath, got %v", in, err)
		}
	}
}

// TestCoversBoundary pins the segment-boundary rule.
func TestCoversBoundary(t *testing.T) {
	cases := []struct {
		prefix, path string
		want         bool
	}{
		{"reports", "reports", true},
		{"reports", "reports/2024/q1", true},
		{"reports", "reportsX", false},
		{"reports/2024", "reports", false},
		{"a", "a/b", true},
		{"a/b", "a/bc", false},
	}
	for _, tc := range cases {
		if got := covers(tc.prefix, tc.path); got != tc.want {
			t.Fatalf("covers(%q, %q) = %v, want %v", tc.prefix, tc.path, got, tc.want)
		}
	}
}

// TestDefaultsStable confirms the registration template is a pure
// function of the level.
func TestDefaultsStable(t *testing.T) {
	d := Defaults()
	first, err := d.FoldersFor(LevelPull)
	if err != nil {
		t.Fatalf("FoldersFor: %v", err)
	}
	second, err := d.FoldersFor(LevelPull)
	if err != nil {
		t.Fatalf("FoldersFor: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("defaults changed between calls: %v vs %v", first, second)
	}
	if len(first) == 0 {
		t.Fatalf("expected pull defaults to be non-empty")
	}

	push, err := d.FoldersFor(LevelPush)
	if err != nil {
		t.Fatalf("FoldersFor: %v", err)
	}
	if reflect.DeepEqual(first, push) {
		t.Fatalf("expected pull and push templates to differ")
	}

	if _, err := d.FoldersFor(Level(0)); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel for zero level, got %v", err)
	}
}

// TestFoldersForCopies ensures callers cannot mutate the table
// through the returned slice.
func TestFoldersForCopies(t *testing.T) {
	d := Defaults()
	got, err := d.FoldersFor(LevelBoth)
	if err != nil {
		t.Fatalf("FoldersFor: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected both defaults to be non-empty")
	}
	got[0] = "tampered"
	again, err := d.FoldersFor(LevelBoth)
	if err != nil {
		t.Fatalf("FoldersFor: %v", err)
	}
	if again[0] == "tampered" {
		t.Fatalf("returned slice aliases the template table")
	}
}
