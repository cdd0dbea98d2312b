package service

import (
	"testing"
	"time"
)

func newDefaultEvents(t *testing.T) *EventService {
	t.Helper()
	svc, err := NewEventService(DefaultEventCatalog())
	if err != nil {
		t.Fatalf("new event service: %v", err)
	}
	return svc
}

func TestEventServiceCurrentIndexReference(t *testing.T) {
	svc := newDefaultEvents(t)
	ref := time.Date(2025, 10, 10, 22, 0, 0, 0, time.UTC)

	cases := []struct {
		at   time.Time
		want int
	}{
		{ref, 13},
		{ref.Add(59*time.Minute + 59*time.Second), 13},
		{ref.Add(time.Hour), 0},
		{time.Date(2025, 10, 11, 0, 0, 0, 0, time.UTC), 1},
		{ref.Add(-time.Second), 12},
		{ref.Add(-time.Hour), 12},
		{ref.Add(-time.Hour - time.Second), 11},
		{ref.Add(-14 * time.Hour), 13},
	}
	for _, tc := range cases {
		if got := svc.CurrentIndex(tc.at); got != tc.want {
			t.Fatalf("CurrentIndex(%v) = %d, want %d", tc.at, got, tc.want)
		}
	}
	if name := svc.Name(svc.CurrentIndex(ref)); name != "Evil Bloodwood Tree" {
		t.Fatalf("unexpected reference event %q", name)
	}
}

func TestEventServiceCurrentIndexPeriodic(t *testing.T) {
	svc := newDefaultEvents(t)
	period := time.Duration(svc.Len()) * time.Hour
	start := time.Date(2024, 2, 29, 3, 17, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		at := start.Add(time.Duration(i) * 37 * time.Minute)
		if a, b := svc.CurrentIndex(at), svc.CurrentIndex(at.Add(period)); a != b {
			t.Fatalf("index not periodic at %v: %d vs %d", at, a, b)
		}
		if idx := svc.CurrentIndex(at); idx < 0 || idx >= svc.Len() {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestEventServiceUpcomingWindow(t *testing.T) {
	svc := newDefaultEvents(t)
	// Current event: index 1 (Unnatural Outcrop) at 00:10 UTC.
	now := time.Date(2025, 10, 11, 0, 10, 0, 0, time.UTC)

	slots := svc.UpcomingWindow(now, 14, true, time.UTC)
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}

	next := slots[7]
	if !next.Next || next.Name != "Stryke the Wyrm" || next.StartHourUTC != 1 {
		t.Fatalf("unexpected centered slot: %+v", next)
	}
	if next.Display != "01:00" {
		t.Fatalf("expected display 01:00, got %q", next.Display)
	}
	if next.Countdown != 50*time.Minute {
		t.Fatalf("expected 50m countdown, got %v", next.Countdown)
	}
	if !next.Special {
		t.Fatalf("Stryke the Wyrm is special")
	}

	first := slots[0]
	if first.StartHourUTC != 18 || first.Name != svc.Name(2-7) {
		t.Fatalf("unexpected first slot: %+v", first)
	}
	// 18:00 today has not happened yet at 00:10.
	if want := time.Date(2025, 10, 11, 18, 0, 0, 0, time.UTC); !first.Start.Equal(want) {
		t.Fatalf("first slot start %v, want %v", first.Start, want)
	}

	current := slots[6]
	if current.StartHourUTC != 0 {
		t.Fatalf("slot before next should be the current hour, got %d", current.StartHourUTC)
	}
	// 00:00 today already passed, so it rolls to tomorrow.
	if want := 23*time.Hour + 50*time.Minute; current.Countdown != want {
		t.Fatalf("current slot countdown %v, want %v", current.Countdown, want)
	}

	for i := 1; i < len(slots); i++ {
		if (slots[i-1].StartHourUTC+1)%24 != slots[i].StartHourUTC {
			t.Fatalf("slots %d and %d are not consecutive hours", i-1, i)
		}
		if slots[i].Next && i != 7 {
			t.Fatalf("only the centered slot is next")
		}
	}
}

func TestEventServiceUpcomingWindowLocalDisplay(t *testing.T) {
	svc := newDefaultEvents(t)
	now := time.Date(2025, 10, 11, 0, 10, 0, 0, time.UTC)
	loc := time.FixedZone("IST", 5*3600+30*60)

	slots := svc.UpcomingWindow(now, 3, false, loc)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if !slots[1].Next || slots[1].Display != "06:30" {
		t.Fatalf("expected next event at 06:30 local, got %+v", slots[1])
	}
}

func TestEventServiceUpcomingWindowDeterministic(t *testing.T) {
	svc := newDefaultEvents(t)
	now := time.Date(2026, 3, 1, 13, 45, 12, 0, time.UTC)
	a := svc.UpcomingWindow(now, 14, true, time.UTC)
	b := svc.UpcomingWindow(now, 14, true, time.UTC)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs between calls", i)
		}
	}
	if svc.UpcomingWindow(now, 0, true, time.UTC) != nil {
		t.Fatalf("empty window expected for size 0")
	}
}

func TestNextOccurrenceOfHour(t *testing.T) {
	now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	if got := NextOccurrenceOfHour(10, now); !got.Equal(now) {
		t.Fatalf("same instant should not roll forward, got %v", got)
	}
	if got, want := NextOccurrenceOfHour(9, now), time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if got, want := NextOccurrenceOfHour(11, now), time.Date(2025, 5, 5, 11, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestNewEventServiceValidates(t *testing.T) {
	if _, err := NewEventService(EventCatalog{}); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
	catalog := DefaultEventCatalog()
	catalog.ReferenceIndex = 14
	if _, err := NewEventService(catalog); err == nil {
		t.Fatalf("expected error for out of range reference index")
	}
	catalog = DefaultEventCatalog()
	catalog.Names = append([]string{""}, catalog.Names[1:]...)
	if _, err := NewEventService(catalog); err == nil {
		t.Fatalf("expected error for unnamed event")
	}
}

func TestEventServiceIsSpecial(t *testing.T) {
	svc := newDefaultEvents(t)
	for _, name := range []string{"Stryke the Wyrm", "King Black Dragon Rampage", "Infernal Star", "Evil Bloodwood Tree"} {
		if !svc.IsSpecial(name) {
			t.Fatalf("%s should be special", name)
		}
	}
	if svc.IsSpecial("Spider Swarm") {
		t.Fatalf("Spider Swarm is not special")
	}
}
