package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "one second", duration: time.Second, expected: "1 second"},
		{name: "under one minute", duration: 45 * time.Second, expected: "45 seconds"},
		{name: "rounded second to minute", duration: 59*time.Second + 500*time.Millisecond, expected: "1 minute"},
		{name: "whole minutes", duration: 10 * time.Minute, expected: "10 minutes"},
		{name: "minutes and seconds", duration: 2*time.Minute + 30*time.Second, expected: "2 minutes 30 seconds"},
		{name: "whole hours", duration: 24 * time.Hour, expected: "24 hours"},
		{name: "hours and minutes", duration: time.Hour + 30*time.Minute, expected: "1 hour 30 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatDuration(tt.duration); got != tt.expected {
				t.Fatalf("FormatDuration(%s) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email    string
		expected string
	}{
		{email: "alice@x.com", expected: "a***@x.com"},
		{email: "a@x.com", expected: "a***@x.com"},
		{email: "not-an-email", expected: "***"},
		{email: "@x.com", expected: "***"},
		{email: "", expected: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()

			if got := MaskEmail(tt.email); got != tt.expected {
				t.Fatalf("MaskEmail(%q) = %s, want %s", tt.email, got, tt.expected)
			}
		})
	}
}
