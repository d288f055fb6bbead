package utils

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("Sjögren syndrome", 3); got != "Sjö..." {
		t.Errorf("multi-byte label cut mid-rune: %q", got)
	}
	if got := Truncate("Ménière", 7); got != "Ménière" {
		t.Errorf("label within rune limit should be unchanged, got %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  lung   carcinoma ", "lung carcinoma"},
		{"a\tb\nc", "a b c"},
		{"ﬁbroma", "fibroma"}, // NFKC folds the ligature
		{"x\u0007y", "xy"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLowerWords(t *testing.T) {
	got := LowerWords(" Fusion  NEGATIVE rhabdomyosarcoma")
	want := []string{"fusion", "negative", "rhabdomyosarcoma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LowerWords = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-1, 0, 100) != 0 || Clamp(101, 0, 100) != 100 || Clamp(42, 0, 100) != 42 {
		t.Error("Clamp out of range")
	}
}
