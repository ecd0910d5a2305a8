// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{name: "environment variable set", key: "TEST_STRING", defaultValue: "default", envValue: "from-env", envSet: true, want: "from-env"},
		{name: "environment variable not set", key: "TEST_STRING_UNSET", defaultValue: "default", want: "default"},
		{name: "environment variable empty string", key: "TEST_STRING_EMPTY", defaultValue: "default", envValue: "", envSet: true, want: "default"},
		{name: "sensitive variable (secret)", key: "TEST_SESSION_SECRET", defaultValue: "default", envValue: "secret123", envSet: true, want: "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := ParseString(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	t.Setenv("TEST_INT_OK", "42")
	t.Setenv("TEST_INT_BAD", "forty-two")

	if got := ParseInt("TEST_INT_OK", 1); got != 42 {
		t.Errorf("ParseInt valid = %d, want 42", got)
	}
	if got := ParseInt("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("ParseInt invalid = %d, want default 7", got)
	}
	if got := ParseInt("TEST_INT_MISSING", 9); got != 9 {
		t.Errorf("ParseInt missing = %d, want default 9", got)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"false", true, false},
		{"no", true, false},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := ParseBool("TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("ParseBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDurationAndFloat(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_DUR_BAD", "ninety")
	t.Setenv("TEST_FLOAT", "0.25")

	if got := ParseDuration("TEST_DUR", time.Second); got != 90*time.Second {
		t.Errorf("ParseDuration = %v", got)
	}
	if got := ParseDuration("TEST_DUR_BAD", time.Second); got != time.Second {
		t.Errorf("ParseDuration invalid = %v, want default", got)
	}
	if got := ParseFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("ParseFloat = %v", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"VIDFOLIO_HOSTED_API_KEY", "VIDFOLIO_POSTGRES_DSN", "VIDFOLIO_REDIS_PASSWORD", "VIDFOLIO_SESSION_SECRET"} {
		if !isSensitiveKey(k) {
			t.Errorf("%s should be sensitive", k)
		}
	}
	if isSensitiveKey("VIDFOLIO_LISTEN") {
		t.Error("VIDFOLIO_LISTEN should not be sensitive")
	}
}
