package server

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	slug := slugify("Novoročni Párty u Jirky!")
	if !strings.HasPrefix(slug, "novoro-ni-p-rty-u-jirky-") {
		t.Fatalf("unexpected slug %q", slug)
	}
	if strings.Contains(slug, "--") || strings.HasSuffix(slug, "-") {
		t.Fatalf("slug has dangling dashes: %q", slug)
	}

	if slug := slugify("!!!"); !strings.HasPrefix(slug, "event-") {
		t.Fatalf("empty title must fall back to a generic slug, got %q", slug)
	}

	long := slugify(strings.Repeat("a", 200))
	if len(long) > 75 {
		t.Fatalf("slug too long: %d chars", len(long))
	}
}

func TestNewJoinCodeAlphabet(t *testing.T) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	for i := 0; i < 50; i++ {
		code := newJoinCode()
		if len(code) != 6 {
			t.Fatalf("expected 6 chars, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("character %q outside the unambiguous alphabet", r)
			}
		}
	}
}
