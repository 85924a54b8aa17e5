package utils

import (
	"testing"
	"time"
)

func TestParseDurationString(t *testing.T) {
	tests := []struct {
		input      string
		expected   time.Duration
		shouldFail bool
	}{
		{"", 0, true},
		{"1", 0, true},
		{"1s", time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"xd", 0, true},
		{"-1d", 0, true},
		{"1w", 0, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			result, err := ParseDurationString(test.input)
			if test.shouldFail {
				if err == nil {
					t.Errorf("expected error for %q", test.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != test.expected {
				t.Errorf("got %v, want %v", result, test.expected)
			}
		})
	}
}
