package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/tasktracker/internal/model"
)

// taskColumns is the canonical select list for task rows; scanTask must
// stay in sync with it.
const taskColumns = "tasks.id, tasks.title, tasks.description, tasks.priority, " +
	"tasks.due_date, tasks.completed, tasks.created_at, tasks.updated_at, tasks.deleted_at"

// CreateTask inserts the task and its tag associations, populating ID and
// timestamps. Durable only once the session commits.
func (s *sqliteSession) CreateTask(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := s.tx.ExecContext(ctx, `
		INSERT INTO tasks (title, description, priority, due_date, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, task.Priority, task.DueDate,
		boolToInt(task.Completed), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new task id: %w", err)
	}
	task.ID = id

	for _, tag := range task.Tags {
		if _, err := s.tx.ExecContext(ctx,
			"INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)",
			task.ID, tag.ID); err != nil {
			return fmt.Errorf("associating tag %q with task %d: %w", tag.Name, task.ID, err)
		}
	}

	return nil
}

// GetTaskByID retrieves a single active task, including its tags. Returns
// nil when no active task has the id; a soft-deleted task looks the same
// as one that never existed.
func (s *sqliteSession) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.tx.QueryRowxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND deleted_at IS NULL", id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}

	tags, err := s.getTagsForTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	task.Tags = tags

	return &task, nil
}

// ListTasks retrieves active tasks matching the filter, ascending by id so
// page boundaries stay stable under concurrent inserts.
func (s *sqliteSession) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery("SELECT "+taskColumns, filter)
	if len(filter.Tags) > 0 {
		// The tag join yields one row per matching tag; collapse to one
		// row per task.
		query += " GROUP BY tasks.id"
	}
	query += " ORDER BY tasks.id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		tags, err := s.getTagsForTask(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Tags = tags
	}

	return tasks, nil
}

// CountTasks returns the distinct count of active tasks matching the
// filter. It shares buildTaskQuery with ListTasks and ignores Limit and
// Offset, so count and list agree on the candidate set for every filter.
func (s *sqliteSession) CountTasks(ctx context.Context, filter TaskFilter) (int, error) {
	query, args := buildTaskQuery("SELECT COUNT(DISTINCT tasks.id)", filter)

	var count int
	if err := s.tx.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

// UpdateTask persists the task's mutable fields and refreshes UpdatedAt.
func (s *sqliteSession) UpdateTask(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}

	task.UpdatedAt = time.Now().UTC()

	res, err := s.tx.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, priority = ?,
			due_date = ?, completed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		task.Title, task.Description, task.Priority,
		task.DueDate, boolToInt(task.Completed), task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", task.ID, err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d not found", task.ID)
	}
	return nil
}

// ReplaceTaskTags overwrites the task's tag associations with the given
// set, preserving its order.
func (s *sqliteSession) ReplaceTaskTags(ctx context.Context, taskID int64, tags []model.Tag) error {
	if _, err := s.tx.ExecContext(ctx,
		"DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("clearing tags for task %d: %w", taskID, err)
	}

	for _, tag := range tags {
		if _, err := s.tx.ExecContext(ctx,
			"INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)",
			taskID, tag.ID); err != nil {
			return fmt.Errorf("associating tag %q with task %d: %w", tag.Name, taskID, err)
		}
	}

	return nil
}

// SoftDeleteTask stamps DeletedAt on an active task. UpdatedAt is left
// untouched. Stamping an already-deleted task is a no-op at this level;
// the service rejects the second call earlier via GetTaskByID.
func (s *sqliteSession) SoftDeleteTask(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()

	res, err := s.tx.ExecContext(ctx,
		"UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, task.ID,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting task %d: %w", task.ID, err)
	}

	if rows, _ := res.RowsAffected(); rows > 0 {
		task.DeletedAt = &now
	}
	return nil
}

// getTagsForTask loads the task's tags in association order, which mirrors
// the order the tag set was written in.
func (s *sqliteSession) getTagsForTask(ctx context.Context, taskID int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.tx.SelectContext(ctx, &tags, `
		SELECT tags.id, tags.name FROM tags
		INNER JOIN task_tags ON tags.id = task_tags.tag_id
		WHERE task_tags.task_id = ?
		ORDER BY task_tags.rowid`, taskID)
	if err != nil {
		return nil, fmt.Errorf("loading tags for task %d: %w", taskID, err)
	}
	return tags, nil
}

// buildTaskQuery assembles the shared FROM/WHERE portion of the list and
// count queries for a TaskFilter. Soft-deleted tasks are excluded
// unconditionally.
func buildTaskQuery(selectClause string, filter TaskFilter) (string, []interface{}) {
	conditions := []string{"tasks.deleted_at IS NULL"}
	var args []interface{}

	from := " FROM tasks"
	if len(filter.Tags) > 0 {
		from += " INNER JOIN task_tags ON tasks.id = task_tags.task_id" +
			" INNER JOIN tags ON tags.id = task_tags.tag_id"
	}

	if filter.Completed != nil {
		conditions = append(conditions, "tasks.completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "tasks.priority = ?")
		args = append(args, *filter.Priority)
	}
	if len(filter.Tags) > 0 {
		placeholders := make([]string, len(filter.Tags))
		for i, name := range filter.Tags {
			placeholders[i] = "?"
			args = append(args, name)
		}
		conditions = append(conditions,
			"tags.name IN ("+strings.Join(placeholders, ", ")+")")
	}

	return selectClause + from + " WHERE " + strings.Join(conditions, " AND "), args
}

// scanTask scans a task row; the column order matches taskColumns.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task         model.Task
		completedInt int
	)

	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Priority,
		&task.DueDate, &completedInt, &task.CreatedAt, &task.UpdatedAt,
		&task.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.Completed = completedInt != 0
	return task, nil
}
