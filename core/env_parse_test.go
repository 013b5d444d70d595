package core

import (
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("FA_TEST_STR", "value")
	if got := GetEnvOrDefault("FA_TEST_STR", "fallback"); got != "value" {
		t.Errorf("GetEnvOrDefault() = %q, want value", got)
	}
	if got := GetEnvOrDefault("FA_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnvOrDefault() = %q, want fallback", got)
	}
}

func TestParseIntEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{name: "valid", value: "42", def: 7, want: 42},
		{name: "negative", value: "-5", def: 7, want: -5},
		{name: "unparseable", value: "abc", def: 7, want: 7},
		{name: "empty", value: "", def: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FA_TEST_INT", tt.value)
			if got := ParseIntEnv("FA_TEST_INT", tt.def); got != tt.want {
				t.Errorf("ParseIntEnv() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{value: "true", def: false, want: true},
		{value: "1", def: false, want: true},
		{value: "YES", def: false, want: true},
		{value: "off", def: true, want: false},
		{value: "0", def: true, want: false},
		{value: "garbage", def: true, want: true},
		{value: "", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv("FA_TEST_BOOL", tt.value)
			if got := ParseBoolEnv("FA_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("FA_TEST_DUR", "90s")
	if got := ParseDurationEnv("FA_TEST_DUR", time.Second); got != 90*time.Second {
		t.Errorf("ParseDurationEnv() = %v, want 90s", got)
	}

	t.Setenv("FA_TEST_DUR", "not a duration")
	if got := ParseDurationEnv("FA_TEST_DUR", 5*time.Second); got != 5*time.Second {
		t.Errorf("ParseDurationEnv() = %v, want default 5s", got)
	}
}

func TestParseFloat64Env(t *testing.T) {
	t.Setenv("FA_TEST_FLOAT", "0.25")
	if got := ParseFloat64Env("FA_TEST_FLOAT", 1.0); got != 0.25 {
		t.Errorf("ParseFloat64Env() = %v, want 0.25", got)
	}
}
