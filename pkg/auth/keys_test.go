package auth

import (
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	live, err := GenerateKey(true)
	if err != nil {
		t.Fatalf("GenerateKey(true): %v", err)
	}
	if !strings.HasPrefix(live, PrefixLive) {
		t.Errorf("expected %q prefix, got %q", PrefixLive, live)
	}

	test, err := GenerateKey(false)
	if err != nil {
		t.Fatalf("GenerateKey(false): %v", err)
	}
	if !strings.HasPrefix(test, PrefixTest) {
		t.Errorf("expected %q prefix, got %q", PrefixTest, test)
	}

	other, err := GenerateKey(true)
	if err != nil {
		t.Fatalf("GenerateKey(true): %v", err)
	}
	if live == other {
		t.Error("two generated keys should not collide")
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("dk_live_abc")
	h2 := HashKey("dk_live_abc")
	h3 := HashKey("dk_live_abd")

	if h1 != h2 {
		t.Error("hash should be deterministic")
	}
	if h1 == h3 {
		t.Error("distinct keys should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
	if h1 == "dk_live_abc" {
		t.Error("hash must not equal the plaintext key")
	}
}

func TestHasValidPrefix(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"dk_live_0123456789abcdef", true},
		{"dk_test_0123456789abcdef", true},
		{"sk_live_0123456789abcdef", false},
		{"dk_prod_0123456789abcdef", false},
		{"dk_live", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := HasValidPrefix(tc.key); got != tc.want {
			t.Errorf("HasValidPrefix(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestMaskKey(t *testing.T) {
	key := "dk_live_0123456789abcdef0123456789abcdef"
	masked := MaskKey(key)

	if masked == key {
		t.Error("masked key must not equal the original")
	}
	if !strings.HasPrefix(masked, "dk_live_0123") {
		t.Errorf("masked key should keep the display prefix, got %q", masked)
	}
	if !strings.HasSuffix(masked, "cdef") {
		t.Errorf("masked key should keep the last 4 chars, got %q", masked)
	}
	if !strings.Contains(masked, "...") {
		t.Errorf("masked key should elide the middle, got %q", masked)
	}

	if got := MaskKey("short"); got != "***" {
		t.Errorf("short keys should be fully masked, got %q", got)
	}
}
