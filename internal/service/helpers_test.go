package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubRepo keeps the last saved collection unless loadFn or saveFn override it.
type stubRepo struct {
	loadFn func(ctx context.Context) ([]model.Task, error)
	saveFn func(ctx context.Context, tasks []model.Task) error
	saves  int
	stored []model.Task
}

func (s *stubRepo) Load(ctx context.Context) ([]model.Task, error) {
	if s.loadFn == nil {
		return cloneTasks(s.stored), nil
	}
	return s.loadFn(ctx)
}

func (s *stubRepo) Save(ctx context.Context, tasks []model.Task) error {
	s.saves++
	if s.saveFn != nil {
		if err := s.saveFn(ctx, tasks); err != nil {
			return err
		}
	}
	s.stored = cloneTasks(tasks)
	return nil
}

func nullLogger() (logrus.FieldLogger, *test.Hook) {
	log, hook := test.NewNullLogger()
	return log, hook
}

// newTestTaskService returns a service over an in-memory store with sequential ids.
func newTestTaskService(t *testing.T, clock Clock) (*TaskService, *repository.TaskRepository) {
	t.Helper()
	repo := repository.NewTaskRepository(repository.NewMemoryStore())
	log, _ := nullLogger()
	svc, err := NewTaskService(context.Background(), repo, clock, log)
	if err != nil {
		t.Fatalf("new task service: %v", err)
	}
	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("t_%d", seq)
	}
	return svc, repo
}

func mustAdd(t *testing.T, svc *TaskService, text string, category model.Category, priority int) model.Task {
	t.Helper()
	task, err := svc.Add(context.Background(), text, category, priority)
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	return task
}

func assertCompletionInvariant(t *testing.T, tasks []model.Task) {
	t.Helper()
	for _, task := range tasks {
		if task.Completed != (task.CompletedAt != nil) {
			t.Fatalf("task %s breaks completion invariant: completed=%v completedAt=%v", task.ID, task.Completed, task.CompletedAt)
		}
	}
}
