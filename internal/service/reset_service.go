package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"task-tracker/internal/model"
)

// Weekly resets happen at the start of this UTC weekday.
const WeeklyResetDay = time.Wednesday

// NextReset returns the first reset boundary of category strictly after now, in UTC.
func NextReset(category model.Category, now time.Time) time.Time {
	now = now.UTC()
	year, month, day := now.Date()
	switch category {
	case model.CategoryWeekly:
		days := (int(WeeklyResetDay) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return time.Date(year, month, day+days, 0, 0, 0, 0, time.UTC)
	case model.CategoryMonthly:
		return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, month, day+1, 0, 0, 0, 0, time.UTC)
	}
}

// PreviousReset returns the latest reset boundary of category at or before now.
func PreviousReset(category model.Category, now time.Time) time.Time {
	now = now.UTC()
	year, month, day := now.Date()
	switch category {
	case model.CategoryWeekly:
		back := (int(now.Weekday()) - int(WeeklyResetDay) + 7) % 7
		return time.Date(year, month, day-back, 0, 0, 0, 0, time.UTC)
	case model.CategoryMonthly:
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}

// Countdown is the time left until the next reset of category.
func Countdown(category model.Category, now time.Time) time.Duration {
	return NextReset(category, now).Sub(now)
}

type categoryResetter interface {
	ResetCategory(ctx context.Context, category model.Category) (int, error)
	UncompleteBefore(ctx context.Context, category model.Category, cutoff time.Time) (int, error)
}

// ResetService tracks the pending boundary of every category and resets a
// category once the clock reaches it.
type ResetService struct {
	tasks categoryResetter
	clock Clock
	log   logrus.FieldLogger

	checkMu sync.Mutex
	mu      sync.Mutex
	next    map[model.Category]time.Time
}

func NewResetService(tasks categoryResetter, clock Clock, log logrus.FieldLogger) *ResetService {
	now := clock.Now()
	next := make(map[model.Category]time.Time, len(model.Categories))
	for _, c := range model.Categories {
		next[c] = NextReset(c, now)
	}
	return &ResetService{tasks: tasks, clock: clock, log: log, next: next}
}

// Next returns the boundary the service is waiting for.
func (s *ResetService) Next(category model.Category) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next[category]
}

// CatchUp uncompletes tasks that were completed before the latest boundary of
// their category, covering resets missed while the process was not running.
func (s *ResetService) CatchUp(ctx context.Context) (int, error) {
	now := s.clock.Now()
	var total int
	for _, c := range model.Categories {
		n, err := s.tasks.UncompleteBefore(ctx, c, PreviousReset(c, now))
		if err != nil {
			return total, fmt.Errorf("catch up %s: %w", c, err)
		}
		total += n
	}
	if total > 0 {
		s.log.WithField("reset_count", total).Info("caught up on missed resets")
	}
	return total, nil
}

// Check resets every category whose boundary is at or before now and schedules
// its next boundary. A failed reset keeps the old boundary so the next check retries.
// The boundary map is not locked while tasks are reset, so Next never waits on
// change listeners.
func (s *ResetService) Check(ctx context.Context) ([]model.Category, error) {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	now := s.clock.Now()
	s.mu.Lock()
	var due []model.Category
	for _, c := range model.Categories {
		if !now.Before(s.next[c]) {
			due = append(due, c)
		}
	}
	s.mu.Unlock()

	var crossed []model.Category
	for _, c := range due {
		n, err := s.tasks.ResetCategory(ctx, c)
		if err != nil {
			return crossed, fmt.Errorf("reset %s: %w", c, err)
		}
		next := NextReset(c, now)
		s.mu.Lock()
		s.next[c] = next
		s.mu.Unlock()
		crossed = append(crossed, c)
		s.log.WithFields(logrus.Fields{
			"category":    c,
			"reset_count": n,
			"next_reset":  next.Format(time.RFC3339),
		}).Info("reset boundary crossed")
	}
	return crossed, nil
}

// Start runs the catch-up pass and then registers a periodic Check.
func (s *ResetService) Start(ctx context.Context, scheduler *SchedulerService, interval time.Duration) error {
	if _, err := s.CatchUp(ctx); err != nil {
		return err
	}
	if _, err := s.Check(ctx); err != nil {
		return err
	}
	_, err := scheduler.ScheduleInterval(interval, func() {
		if _, err := s.Check(ctx); err != nil {
			s.log.WithError(err).Error("reset check")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reset checks: %w", err)
	}
	return nil
}
