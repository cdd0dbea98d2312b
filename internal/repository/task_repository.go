package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"task-tracker/internal/model"
)

const TasksKey = "taskTrackerData"

// ErrMalformed marks a persisted payload that could not be decoded.
var ErrMalformed = errors.New("malformed payload")

type taskRecord struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completedAt,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// TaskRepository stores the whole task collection as one value.
type TaskRepository struct {
	kv KVStore
}

func NewTaskRepository(kv KVStore) *TaskRepository {
	return &TaskRepository{kv: kv}
}

// Load returns the persisted tasks. A missing key yields an empty slice; a payload
// that is not a JSON array of records yields ErrMalformed.
func (r *TaskRepository) Load(ctx context.Context) ([]model.Task, error) {
	data, err := r.kv.Get(ctx, TasksKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return DecodeTasks(data)
}

// Save replaces the persisted collection.
func (r *TaskRepository) Save(ctx context.Context, tasks []model.Task) error {
	data, err := EncodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, TasksKey, data); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func EncodeTasks(tasks []model.Task) ([]byte, error) {
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		rec := taskRecord{
			ID:        t.ID,
			Text:      t.Text,
			Category:  string(t.Category),
			Priority:  t.Priority,
			Completed: t.Completed,
			CreatedAt: t.CreatedAt.UnixMilli(),
		}
		if t.Completed && t.CompletedAt != nil {
			rec.CompletedAt = t.CompletedAt.UTC().Format(time.RFC3339Nano)
		}
		records = append(records, rec)
	}
	data, err := sonic.ConfigStd.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// DecodeTasks parses a payload and repairs what it can. Records without an id,
// without text or with an unknown category are dropped; the first record wins on
// duplicate ids.
func DecodeTasks(data []byte) ([]model.Task, error) {
	var records []taskRecord
	if err := sonic.ConfigStd.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]model.Task, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID == "" || rec.Text == "" {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		category, err := model.ParseCategory(rec.Category)
		if err != nil {
			continue
		}
		seen[rec.ID] = struct{}{}

		task := model.Task{
			ID:        rec.ID,
			Text:      rec.Text,
			Category:  category,
			Priority:  model.ClampPriority(rec.Priority),
			Completed: rec.Completed,
			CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
		}
		if task.Completed {
			at := task.CreatedAt
			if parsed, err := time.Parse(time.RFC3339Nano, rec.CompletedAt); err == nil {
				at = parsed.UTC()
			}
			task.CompletedAt = &at
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
