package service

import (
	"fmt"
	"time"
)

type clockParts struct {
	days, hours, minutes, seconds int64
}

func split(d time.Duration) clockParts {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return clockParts{
		days:    total / 86400,
		hours:   total / 3600 % 24,
		minutes: total / 60 % 60,
		seconds: total % 60,
	}
}

// FormatResetCountdown renders the time left until a category reset:
// "2d 03h 15m", "03h 15m 09s", or "15:09" under one hour.
func FormatResetCountdown(d time.Duration) string {
	p := split(d)
	switch {
	case p.days >= 1:
		return fmt.Sprintf("%dd %02dh %02dm", p.days, p.hours, p.minutes)
	case p.hours >= 1:
		return fmt.Sprintf("%02dh %02dm %02ds", p.hours, p.minutes, p.seconds)
	default:
		return fmt.Sprintf("%02d:%02d", p.minutes, p.seconds)
	}
}

// FormatEventCountdown renders "hh:mm" from one hour up and "mm:ss" below.
func FormatEventCountdown(d time.Duration) string {
	p := split(d)
	if p.days > 0 || p.hours > 0 {
		return fmt.Sprintf("%02d:%02d", p.days*24+p.hours, p.minutes)
	}
	return fmt.Sprintf("%02d:%02d", p.minutes, p.seconds)
}

// FormatCompletedAt renders a completion stamp like "Wed, 1st Jan 2025, 10:00".
func FormatCompletedAt(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return fmt.Sprintf("%s, %d%s %s", t.Format("Mon"), t.Day(), ordinalSuffix(t.Day()), t.Format("Jan 2006, 15:04"))
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
