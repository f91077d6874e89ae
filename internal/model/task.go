package model

import "time"

// Task priority bounds, enforced at the API boundary and re-checked by the
// store's CHECK constraint.
const (
	PriorityMin = 1
	PriorityMax = 5
)

// MaxTitleLength is the longest accepted task title after trimming.
const MaxTitleLength = 200

// Task is a tracked work item. A task is active while DeletedAt is nil;
// soft-deleted tasks stay in the database but are invisible to every read.
type Task struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Priority    int        `json:"priority" db:"priority"`
	DueDate     time.Time  `json:"due_date" db:"due_date"`
	Completed   bool       `json:"completed" db:"completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"`

	// Tags is populated by queries that join with task_tags,
	// in association order.
	Tags []Tag `json:"tags" db:"-"`
}

// TagNames returns the canonical names of the task's tags in association
// order.
func (t *Task) TagNames() []string {
	names := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		names[i] = tag.Name
	}
	return names
}

// TaskCreate is the validated input for creating a task.
type TaskCreate struct {
	Title       string
	Description *string
	Priority    int
	DueDate     time.Time
	Tags        []string
}

// TaskPatch is a partial update. A nil pointer means the field was not
// supplied and must be left untouched. Tags pointing at an empty slice
// clears the tag set, which is different from omitting Tags entirely.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *int
	DueDate     *time.Time
	Completed   *bool
	Tags        *[]string
}

// Empty reports whether the patch supplies no fields at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Priority == nil &&
		p.DueDate == nil &&
		p.Completed == nil &&
		p.Tags == nil
}
