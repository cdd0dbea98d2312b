package service

import (
	"testing"
	"time"
)

func TestSchedulerServiceScheduleInterval(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	if _, err := s.ScheduleInterval(0, func() {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := s.ScheduleInterval(-time.Second, func() {}); err == nil {
		t.Fatalf("expected error for negative interval")
	}
	if _, err := s.ScheduleInterval(200*time.Millisecond, func() {}); err != nil {
		t.Fatalf("sub-second interval should round up to one second: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Entries())
	}
}

func TestSchedulerServiceRunsJob(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	fired := make(chan struct{}, 1)
	if _, err := s.ScheduleInterval(time.Second, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not run")
	}
}
