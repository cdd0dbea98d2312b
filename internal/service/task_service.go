package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

var (
	ErrEmptyText       = errors.New("task text is empty")
	ErrInvalidCategory = errors.New("invalid category")
)

// TaskRepository persists the whole task collection.
type TaskRepository interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// TaskService owns the live task collection. Every mutation is written through
// to the repository before it becomes visible.
type TaskService struct {
	repo  TaskRepository
	clock Clock
	log   logrus.FieldLogger
	newID func() string

	mu        sync.Mutex
	tasks     []model.Task
	listeners []func(model.ChangeEvent)
}

// NewTaskService loads the persisted collection. A malformed payload is logged and
// replaced by an empty collection; storage failures are returned.
func NewTaskService(ctx context.Context, repo TaskRepository, clock Clock, log logrus.FieldLogger) (*TaskService, error) {
	tasks, err := repo.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrMalformed):
		log.WithError(err).Warn("persisted tasks are malformed, starting empty")
		tasks = nil
	default:
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	log.WithField("count", len(tasks)).Info("tasks loaded")
	return &TaskService{
		repo:  repo,
		clock: clock,
		log:   log,
		newID: uuid.NewString,
		tasks: tasks,
	}, nil
}

// Subscribe registers fn to be called after each successful mutation.
func (s *TaskService) Subscribe(fn func(model.ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *TaskService) Add(ctx context.Context, text string, category model.Category, priority int) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	if !category.Valid() {
		return model.Task{}, ErrInvalidCategory
	}

	var created model.Task
	_, err := s.update(ctx, func(tasks []model.Task) ([]model.Task, *model.ChangeEvent, error) {
		created = model.Task{
			ID:        s.uniqueID(tasks),
			Text:      text,
			Category:  category,
			Priority:  model.ClampPriority(priority),
			CreatedAt: s.now(),
		}
		return append(tasks, created), &model.ChangeEvent{Kind: model.ChangeAdded, TaskID: created.ID, Category: category, Count: 1}, nil
	})
	if err != nil {
		return model.Task{}, err
	}
	s.log.WithFields(logrus.Fields{"task_id": created.ID, "category": category}).Info("task added")
	return created.Clone(), nil
}

// Remove deletes the task. ok is false when id is unknown.
func (s *TaskService) Remove(ctx context.Context, id string) (bool, error) {
	ok, err := s.update(ctx, func(tasks []model.Task) ([]model.Task, *model.ChangeEvent, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, nil, nil
		}
		ev := &model.ChangeEvent{Kind: model.ChangeRemoved, TaskID: id, Category: tasks[i].Category, Count: 1}
		return append(tasks[:i], tasks[i+1:]...), ev, nil
	})
	if ok {
		s.log.WithField("task_id", id).Info("task removed")
	}
	return ok, err
}

// ToggleComplete flips completion and keeps CompletedAt in step with it.
func (s *TaskService) ToggleComplete(ctx context.Context, id string) (model.Task, bool, error) {
	var toggled model.Task
	ok, err := s.update(ctx, func(tasks []model.Task) ([]model.Task, *model.ChangeEvent, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, nil, nil
		}
		t := &tasks[i]
		t.Completed = !t.Completed
		if t.Completed {
			at := s.now()
			t.CompletedAt = &at
		} else {
			t.CompletedAt = nil
		}
		toggled = *t
		return tasks, &model.ChangeEvent{Kind: model.ChangeToggled, TaskID: id, Category: t.Category, Count: 1}, nil
	})
	if err != nil || !ok {
		return model.Task{}, ok, err
	}
	s.log.WithFields(logrus.Fields{"task_id": id, "completed": toggled.Completed}).Info("task toggled")
	return toggled.Clone(), true, nil
}

// Edit applies the non-nil fields of patch. ok is false when id is unknown.
func (s *TaskService) Edit(ctx context.Context, id string, patch model.TaskPatch) (model.Task, bool, error) {
	if patch.Category != nil && !patch.Category.Valid() {
		return model.Task{}, false, ErrInvalidCategory
	}

	var edited model.Task
	ok, err := s.update(ctx, func(tasks []model.Task) ([]model.Task, *model.ChangeEvent, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, nil, nil
		}
		t := tasks[i]
		if patch.Text != nil {
			t.Text = strings.TrimSpace(*patch.Text)
		}
		if t.Text == "" {
			return nil, nil, ErrEmptyText
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.Priority != nil {
			t.Priority = model.ClampPriority(*patch.Priority)
		}
		tasks[i] = t
		edited = t
		return tasks, &model.ChangeEvent{Kind: model.ChangeEdited, TaskID: id, Category: t.Category, Count: 1}, nil
	})
	if err != nil || !ok {
		return model.Task{}, ok, err
	}
	s.log.WithField("task_id", id).Info("task edited")
	return edited.Clone(), true, nil
}

// ResetCategory uncompletes every completed task in category and returns how many
// changed. Nothing is persisted when nothing changed.
func (s *TaskService) ResetCategory(ctx context.Context, category model.Category) (int, error) {
	return s.uncomplete(ctx, category, func(model.Task) bool { return true })
}

// UncompleteBefore uncompletes the tasks of category completed strictly before cutoff.
func (s *TaskService) UncompleteBefore(ctx context.Context, category model.Category, cutoff time.Time) (int, error) {
	return s.uncomplete(ctx, category, func(t model.Task) bool {
		return t.CompletedAt == nil || t.CompletedAt.Before(cutoff)
	})
}

func (s *TaskService) uncomplete(ctx context.Context, category model.Category, match func(model.Task) bool) (int, error) {
	var count int
	_, err := s.update(ctx, func(tasks []model.Task) ([]model.Task, *model.ChangeEvent, error) {
		for i := range tasks {
			t := &tasks[i]
			if t.Category != category || !t.Completed || !match(*t) {
				continue
			}
			t.Completed = false
			t.CompletedAt = nil
			count++
		}
		if count == 0 {
			return nil, nil, nil
		}
		return tasks, &model.ChangeEvent{Kind: model.ChangeReset, Category: category, Count: count}, nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.WithFields(logrus.Fields{"category": category, "reset_count": count}).Info("category reset")
	}
	return count, nil
}

func (s *TaskService) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// All returns every task in insertion order.
func (s *TaskService) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// ListByCategory returns the tasks of category in display order.
func (s *TaskService) ListByCategory(category model.Category) []model.Task {
	s.mu.Lock()
	var out []model.Task
	for _, t := range s.tasks {
		if t.Category == category {
			out = append(out, t.Clone())
		}
	}
	s.mu.Unlock()

	SortTasks(out)
	return out
}

// SortTasks orders tasks: open before completed, then higher priority, then older.
func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Refresh reloads the collection from the repository so changes written by other
// processes sharing the store become visible.
func (s *TaskService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(ctx); err != nil {
		s.log.WithError(err).Warn("refresh tasks")
		return err
	}
	return nil
}

// reloadLocked replaces the live collection with the persisted one. A malformed
// payload keeps the live collection; the next save overwrites the payload.
func (s *TaskService) reloadLocked(ctx context.Context) error {
	tasks, err := s.repo.Load(ctx)
	switch {
	case err == nil:
		s.tasks = tasks
		return nil
	case errors.Is(err, repository.ErrMalformed):
		s.log.WithError(err).Warn("persisted tasks are malformed, keeping loaded state")
		return nil
	default:
		return fmt.Errorf("reload tasks: %w", err)
	}
}

// update reloads the persisted collection, then runs fn on a private copy of it.
// A nil event means nothing changed. The copy replaces the live collection only
// after it was saved.
func (s *TaskService) update(ctx context.Context, fn func([]model.Task) ([]model.Task, *model.ChangeEvent, error)) (bool, error) {
	s.mu.Lock()
	if err := s.reloadLocked(ctx); err != nil {
		s.mu.Unlock()
		s.log.WithError(err).Error("reload tasks")
		return false, err
	}
	next, ev, err := fn(cloneTasks(s.tasks))
	if err != nil || ev == nil {
		s.mu.Unlock()
		return false, err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		s.log.WithError(err).Error("persist tasks")
		return false, err
	}
	s.tasks = next
	listeners := make([]func(model.ChangeEvent), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(*ev)
	}
	return true, nil
}

// now is the clock reading at the precision the payload stores.
func (s *TaskService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func (s *TaskService) uniqueID(tasks []model.Task) string {
	for {
		id := s.newID()
		if indexOf(tasks, id) < 0 {
			return id
		}
	}
}

func indexOf(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
