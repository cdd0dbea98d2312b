package model

import "time"

const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// Task represents a single item in the tracker.
type Task struct {
	ID          string
	Text        string
	Category    Category
	Priority    int
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// TaskPatch carries the optional fields of an edit. Nil fields are left as is.
type TaskPatch struct {
	Text     *string
	Category *Category
	Priority *int
}

// ClampPriority forces p into [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	switch {
	case p < MinPriority:
		return MinPriority
	case p > MaxPriority:
		return MaxPriority
	}
	return p
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// ChangeKind names the mutation that produced a ChangeEvent.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeToggled ChangeKind = "toggled"
	ChangeEdited  ChangeKind = "edited"
	ChangeReset   ChangeKind = "reset"
)

// ChangeEvent is published after a successful task store mutation.
// TaskID is empty for category resets.
type ChangeEvent struct {
	Kind     ChangeKind
	TaskID   string
	Category Category
	Count    int
}
