package util

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateRandomID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		hexLength  int
		wantLength int
	}{
		{"visitor ID format", "v_", 32, 34},
		{"custom prefix", "test_", 16, 21},
		{"no hex", "x_", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomID(tt.prefix, tt.hexLength)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("GenerateRandomID() = %v, want prefix %v", got, tt.prefix)
			}
			if len(got) != tt.wantLength {
				t.Errorf("GenerateRandomID() length = %v, want %v", len(got), tt.wantLength)
			}
			if !isValidHex(got[len(tt.prefix):]) {
				t.Errorf("GenerateRandomID() hex part of %v is not valid hex", got)
			}
		})
	}
}

func TestGenerateRandomHex(t *testing.T) {
	for _, n := range []int{-1, 0, 8, 64} {
		got := GenerateRandomHex(n)
		want := n
		if want < 0 {
			want = 0
		}
		if len(got) != want || !isValidHex(got) {
			t.Errorf("GenerateRandomHex(%d) = %q", n, got)
		}
	}
}

func TestGenerateVisitorIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateVisitorID()
		if !strings.HasPrefix(id, "v_") {
			t.Fatalf("GenerateVisitorID() = %v, want prefix v_", id)
		}
		if seen[id] {
			t.Fatalf("GenerateVisitorID() generated duplicate: %v", id)
		}
		seen[id] = true
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"yes", false, true},
		{"ON", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("FLAREFUNNEL_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("FLAREFUNNEL_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestParseDurationEnv(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 15 * time.Second},
		{"20", 20 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"-3", 15 * time.Second},
		{"soon", 15 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("FLAREFUNNEL_TEST_DURATION", tt.value)
		if got := ParseDurationEnv("FLAREFUNNEL_TEST_DURATION", 15*time.Second); got != tt.want {
			t.Errorf("ParseDurationEnv(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestParseIntEnvAndDefault(t *testing.T) {
	t.Setenv("FLAREFUNNEL_TEST_INT", "3")
	if got := ParseIntEnv("FLAREFUNNEL_TEST_INT", 1); got != 3 {
		t.Errorf("ParseIntEnv() = %d, want 3", got)
	}
	t.Setenv("FLAREFUNNEL_TEST_INT", "three")
	if got := ParseIntEnv("FLAREFUNNEL_TEST_INT", 1); got != 1 {
		t.Errorf("ParseIntEnv() = %d, want default 1", got)
	}
	t.Setenv("FLAREFUNNEL_TEST_STR", "  ")
	if got := GetenvDefault("FLAREFUNNEL_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("GetenvDefault() = %q, want fallback", got)
	}
}

func isValidHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
