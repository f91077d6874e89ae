package store

import (
	"context"

	"github.com/nhle/tasktracker/internal/model"
)

// TaskFilter controls filtering and pagination for task queries. Pointer
// fields are optional and AND-combined; Tags is an ANY-match set of
// canonical names (a task qualifies when its tag set intersects it).
type TaskFilter struct {
	Completed *bool
	Priority  *int
	Tags      []string
	Limit     int
	Offset    int
}

// TaskStore persists and queries task records. Writes run on the enclosing
// session's transaction and become durable only on Commit.
type TaskStore interface {
	// CreateTask inserts the task and its tag associations, populating
	// ID, CreatedAt and UpdatedAt.
	CreateTask(ctx context.Context, task *model.Task) error

	// GetTaskByID returns the active task with the given id, or nil when
	// no active task has it.
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)

	// ListTasks returns active tasks matching the filter, ascending by id.
	// A task matching several requested tags appears exactly once.
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// CountTasks returns the distinct count of active tasks matching the
	// filter, ignoring Limit and Offset. It applies the exact predicate
	// ListTasks does, so the two never disagree on the candidate set.
	CountTasks(ctx context.Context, filter TaskFilter) (int, error)

	// UpdateTask persists the task's mutable fields and refreshes
	// UpdatedAt.
	UpdateTask(ctx context.Context, task *model.Task) error

	// ReplaceTaskTags overwrites the task's tag associations with the
	// given set, preserving its order.
	ReplaceTaskTags(ctx context.Context, taskID int64, tags []model.Tag) error

	// SoftDeleteTask stamps DeletedAt, leaving UpdatedAt untouched.
	// Calling it on an already-deleted task has no further effect.
	SoftDeleteTask(ctx context.Context, task *model.Task) error
}

// TagStore resolves canonical tag names to persisted tags.
type TagStore interface {
	// GetOrCreateTags returns one tag per deduplicated input name in
	// first-occurrence order, creating rows for names not seen before.
	// A uniqueness violation from a concurrent creator is absorbed by
	// re-reading the row rather than surfaced.
	GetOrCreateTags(ctx context.Context, names []string) ([]model.Tag, error)
}

// Session is one transaction-scoped unit of work. Every operation of a
// request runs on a single session; nothing is durable until Commit, and
// Rollback after Commit is a no-op.
type Session interface {
	TaskStore
	TagStore

	Commit() error
	Rollback() error
}

// Store hands out sessions and owns the underlying connection pool. The
// pool is constructed once at startup and closed at shutdown; callers
// never manage connections directly.
type Store interface {
	Begin(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close() error
}
