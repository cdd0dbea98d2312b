package service

import (
	"errors"
	"fmt"
	"time"
)

// EventCatalog describes an hourly rotation: Names repeat in order, one per hour,
// and Names[ReferenceIndex] was active during the hour starting at Reference.
type EventCatalog struct {
	Names          []string
	Special        []string
	Reference      time.Time
	ReferenceIndex int
}

// DefaultEventCatalog is the wilderness flash event rotation.
func DefaultEventCatalog() EventCatalog {
	return EventCatalog{
		Names: []string{
			"Spider Swarm",
			"Unnatural Outcrop",
			"Stryke the Wyrm",
			"Demon Stragglers",
			"Butterfly Swarm",
			"King Black Dragon Rampage",
			"Forgotten Soldiers",
			"Surprising Seedlings",
			"Hellhound Pack",
			"Infernal Star",
			"Lost Souls",
			"Ramokee Incursion",
			"Displaced Energy",
			"Evil Bloodwood Tree",
		},
		Special: []string{
			"Stryke the Wyrm",
			"King Black Dragon Rampage",
			"Infernal Star",
			"Evil Bloodwood Tree",
		},
		Reference:      time.Date(2025, time.October, 10, 22, 0, 0, 0, time.UTC),
		ReferenceIndex: 13,
	}
}

// EventSlot is one hourly row of the event table.
type EventSlot struct {
	Name         string
	StartHourUTC int
	Start        time.Time
	Display      string
	Countdown    time.Duration
	Special      bool
	Next         bool
}

// EventService maps wall-clock time onto the catalog. It holds no mutable state.
type EventService struct {
	catalog EventCatalog
	special map[string]struct{}
}

func NewEventService(catalog EventCatalog) (*EventService, error) {
	if len(catalog.Names) == 0 {
		return nil, errors.New("event catalog is empty")
	}
	for i, name := range catalog.Names {
		if name == "" {
			return nil, fmt.Errorf("event %d has no name", i)
		}
	}
	if catalog.ReferenceIndex < 0 || catalog.ReferenceIndex >= len(catalog.Names) {
		return nil, fmt.Errorf("reference index %d out of range [0, %d)", catalog.ReferenceIndex, len(catalog.Names))
	}

	special := make(map[string]struct{}, len(catalog.Special))
	for _, name := range catalog.Special {
		special[name] = struct{}{}
	}
	return &EventService{catalog: catalog, special: special}, nil
}

func (s *EventService) Len() int {
	return len(s.catalog.Names)
}

func (s *EventService) Name(index int) string {
	return s.catalog.Names[mod(index, len(s.catalog.Names))]
}

func (s *EventService) IsSpecial(name string) bool {
	_, ok := s.special[name]
	return ok
}

// CurrentIndex returns the catalog position active at now. Whole hours are counted
// with floor division so instants before the reference land in the right slot.
func (s *EventService) CurrentIndex(now time.Time) int {
	elapsed := now.Sub(s.catalog.Reference)
	hours := int64(elapsed / time.Hour)
	if elapsed < 0 && elapsed%time.Hour != 0 {
		hours--
	}
	n := int64(len(s.catalog.Names))
	return int(((int64(s.catalog.ReferenceIndex)+hours)%n + n) % n)
}

// UpcomingWindow returns size consecutive slots with the next event in the middle
// row. Start hours are shown as UTC ("HH:00") or converted into loc when showUTC is
// false; a nil loc means the host's local zone.
func (s *EventService) UpcomingWindow(now time.Time, size int, showUTC bool, loc *time.Location) []EventSlot {
	if size <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	nextIndex := s.CurrentIndex(now) + 1
	nextHour := now.UTC().Hour() + 1
	center := size / 2

	slots := make([]EventSlot, 0, size)
	for i := 0; i < size; i++ {
		offset := i - center
		hour := mod(nextHour+offset, 24)
		name := s.Name(nextIndex + offset)
		start := NextOccurrenceOfHour(hour, now)

		display := fmt.Sprintf("%02d:00", hour)
		if !showUTC {
			display = start.In(loc).Format("15:04")
		}

		slots = append(slots, EventSlot{
			Name:         name,
			StartHourUTC: hour,
			Start:        start,
			Display:      display,
			Countdown:    start.Sub(now),
			Special:      s.IsSpecial(name),
			Next:         i == center,
		})
	}
	return slots
}

// NextOccurrenceOfHour returns today's hourUTC:00 if it has not passed yet,
// otherwise the same hour tomorrow.
func NextOccurrenceOfHour(hourUTC int, now time.Time) time.Time {
	u := now.UTC()
	year, month, day := u.Date()
	start := time.Date(year, month, day, hourUTC, 0, 0, 0, time.UTC)
	if start.Before(u) {
		start = start.Add(24 * time.Hour)
	}
	return start
}

func mod(a, n int) int {
	return (a%n + n) % n
}
