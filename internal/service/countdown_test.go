package service

import (
	"testing"
	"time"
)

func TestFormatResetCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-5 * time.Second, "00:00"},
		{0, "00:00"},
		{59*time.Minute + 59*time.Second + 900*time.Millisecond, "59:59"},
		{time.Hour, "01h 00m 00s"},
		{23*time.Hour + 4*time.Minute + 5*time.Second, "23h 04m 05s"},
		{24 * time.Hour, "1d 00h 00m"},
		{6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second, "6d 23h 59m"},
		{30 * 24 * time.Hour, "30d 00h 00m"},
	}
	for _, tc := range cases {
		if got := FormatResetCountdown(tc.in); got != tc.want {
			t.Fatalf("FormatResetCountdown(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatEventCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-time.Minute, "00:00"},
		{50 * time.Minute, "50:00"},
		{59*time.Minute + 1*time.Second, "59:01"},
		{time.Hour, "01:00"},
		{23*time.Hour + 50*time.Minute + 30*time.Second, "23:50"},
	}
	for _, tc := range cases {
		if got := FormatEventCountdown(tc.in); got != tc.want {
			t.Fatalf("FormatEventCountdown(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCompletedAt(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), "Wed, 1st Jan 2025, 10:00"},
		{time.Date(2025, 1, 2, 9, 5, 0, 0, time.UTC), "Thu, 2nd Jan 2025, 09:05"},
		{time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), "Fri, 3rd Jan 2025, 00:00"},
		{time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), "Sat, 11th Jan 2025, 00:00"},
		{time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), "Sun, 12th Jan 2025, 00:00"},
		{time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), "Mon, 13th Jan 2025, 00:00"},
		{time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), "Wed, 22nd Jan 2025, 00:00"},
		{time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC), "Fri, 31st Jan 2025, 23:59"},
	}
	for _, tc := range cases {
		if got := FormatCompletedAt(tc.at, time.UTC); got != tc.want {
			t.Fatalf("FormatCompletedAt(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}

	local := time.FixedZone("+02", 2*3600)
	if got := FormatCompletedAt(time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC), local); got != "Thu, 2nd Jan 2025, 01:00" {
		t.Fatalf("expected conversion into zone, got %q", got)
	}
	if got := FormatCompletedAt(time.Time{}, time.UTC); got != "" {
		t.Fatalf("zero time should render empty, got %q", got)
	}
}
