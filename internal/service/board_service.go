package service

import (
	"context"
	"time"

	"task-tracker/internal/model"
)

// Column is one category of the board with its reset countdown.
type Column struct {
	Category  model.Category
	Tasks     []model.Task
	NextReset time.Time
	Countdown string
}

// Board is everything a front end draws for one refresh.
type Board struct {
	Now     time.Time
	Columns []Column
	Events  []EventSlot
	ShowUTC bool
}

// BoardService assembles Board snapshots for the front ends.
type BoardService struct {
	tasks  *TaskService
	resets *ResetService
	events *EventService
	prefs  *PreferenceService
	clock  Clock
	window int
	loc    *time.Location
}

func NewBoardService(tasks *TaskService, resets *ResetService, events *EventService, prefs *PreferenceService, clock Clock, window int, loc *time.Location) *BoardService {
	if window <= 0 {
		window = events.Len()
	}
	return &BoardService{
		tasks:  tasks,
		resets: resets,
		events: events,
		prefs:  prefs,
		clock:  clock,
		window: window,
		loc:    loc,
	}
}

func (s *BoardService) Snapshot(ctx context.Context) Board {
	// A failed refresh keeps the last loaded tasks on screen.
	_ = s.tasks.Refresh(ctx)

	now := s.clock.Now()
	showUTC := s.prefs.ShowUTC(ctx)

	board := Board{Now: now, ShowUTC: showUTC}
	for _, c := range model.Categories {
		next := NextReset(c, now)
		if s.resets != nil {
			// A pending boundary in the past means a check is due; never show a negative countdown.
			if pending := s.resets.Next(c); pending.After(now) {
				next = pending
			}
		}
		board.Columns = append(board.Columns, Column{
			Category:  c,
			Tasks:     s.tasks.ListByCategory(c),
			NextReset: next,
			Countdown: FormatResetCountdown(next.Sub(now)),
		})
	}
	board.Events = s.events.UpcomingWindow(now, s.window, showUTC, s.loc)
	return board
}

// Location is the zone used for local-time display.
func (s *BoardService) Location() *time.Location {
	if s.loc == nil {
		return time.Local
	}
	return s.loc
}
