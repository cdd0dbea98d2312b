package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

type fakeSource struct {
	showUTC   bool
	snapshots int
}

func (f *fakeSource) Snapshot(context.Context) service.Board {
	f.snapshots++
	done := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return service.Board{
		ShowUTC: f.showUTC,
		Columns: []service.Column{
			{Category: model.CategoryDaily, Countdown: "03h 00m 00s", Tasks: []model.Task{
				{ID: "a", Text: "open task", Category: model.CategoryDaily, Priority: 7},
				{ID: "b", Text: "done task", Category: model.CategoryDaily, Priority: 5, Completed: true, CompletedAt: &done},
			}},
			{Category: model.CategoryWeekly, Countdown: "2d 03h 00m"},
			{Category: model.CategoryMonthly, Countdown: "20d 03h 00m"},
		},
		Events: []service.EventSlot{
			{Name: "Chaos Portal", Display: "23:00", Countdown: 30 * time.Minute, Next: true},
			{Name: "Ancient Giant", Display: "00:00", Countdown: 90 * time.Minute, Special: true},
		},
	}
}

func (f *fakeSource) Location() *time.Location { return time.UTC }

type fakeToggler struct {
	source *fakeSource
	err    error
}

func (f *fakeToggler) ToggleShowUTC(context.Context) (bool, error) {
	if f.err != nil {
		return f.source.showUTC, f.err
	}
	f.source.showUTC = !f.source.showUTC
	return f.source.showUTC, nil
}

func newTestModel(t *testing.T) (Model, *fakeSource, *fakeToggler) {
	t.Helper()
	log, _ := test.NewNullLogger()
	src := &fakeSource{showUTC: true}
	toggler := &fakeToggler{source: src}
	return New(context.Background(), src, toggler, log), src, toggler
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestViewRendersColumnsAndEvents(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{
		"Daily", "Weekly", "Monthly",
		"resets in 03h 00m 00s",
		"[ ] open task (p7)",
		"[x] done task (p5)",
		"Completed on Wed, 1st Jan 2025, 10:00",
		"Wilderness events (UTC)",
		"23:00  30:00  Chaos Portal",
		"Ancient Giant",
		"no tasks",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("view misses %q:\n%s", want, view)
		}
	}
}

func TestTickRefreshesSnapshot(t *testing.T) {
	m, src, _ := newTestModel(t)
	before := src.snapshots

	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick must schedule the next tick")
	}
	if src.snapshots != before+1 {
		t.Fatalf("tick should take a fresh snapshot")
	}
	if _, ok := next.(Model); !ok {
		t.Fatalf("unexpected model type %T", next)
	}
}

func TestToggleKeyFlipsDisplayMode(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, _ := m.Update(keyPress('u'))
	view := next.(Model).View()
	if !strings.Contains(view, "Wilderness events (local)") {
		t.Fatalf("expected local mode:\n%s", view)
	}
}

func TestToggleErrorIsShown(t *testing.T) {
	m, _, toggler := newTestModel(t)
	toggler.err = errors.New("store down")

	next, _ := m.Update(keyPress('u'))
	if !strings.Contains(next.(Model).View(), "store down") {
		t.Fatalf("error should be displayed")
	}
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(keyPress('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
