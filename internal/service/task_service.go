// Package service orchestrates validation and store coordination for task
// operations. Each operation runs on one transaction-scoped session;
// commit is the single final step, so any earlier failure leaves the
// store unchanged.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/tasktracker/internal/apperr"
	"github.com/nhle/tasktracker/internal/model"
	"github.com/nhle/tasktracker/internal/store"
)

// TodayFunc supplies the current calendar date for due-date validation.
// Injectable so tests can pin it.
type TodayFunc func() time.Time

// TaskService implements the task lifecycle:
// absent -> create -> active -> patch* -> deleted (terminal).
type TaskService struct {
	store store.Store
	today TodayFunc
}

// NewTaskService builds a TaskService over the given store. A nil today
// function defaults to the current UTC date.
func NewTaskService(st store.Store, today TodayFunc) *TaskService {
	if today == nil {
		today = func() time.Time { return time.Now().UTC() }
	}
	return &TaskService{store: st, today: today}
}

// Create validates the input, resolves its tags and persists the task,
// returning it fully hydrated with server-assigned id and timestamps.
// An empty tag list is valid and means no tags.
func (s *TaskService) Create(ctx context.Context, in model.TaskCreate) (*model.Task, error) {
	if err := s.validateDueDate(in.DueDate); err != nil {
		return nil, err
	}
	names, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning session: %w", err)
	}
	defer sess.Rollback()

	tags, err := sess.GetOrCreateTags(ctx, names)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     dateOnly(in.DueDate),
		Tags:        tags,
	}
	if err := sess.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	if err := sess.Commit(); err != nil {
		return nil, fmt.Errorf("committing task create: %w", err)
	}
	return task, nil
}

// List returns the total number of active tasks matching the filter and
// the requested page, both computed from the same normalized filter so
// total and page never disagree on the candidate set. Filter tags that
// normalize to empty are dropped rather than rejected: an unmatched
// filter tag just yields zero matches.
func (s *TaskService) List(ctx context.Context, filter store.TaskFilter) (int, []model.Task, error) {
	filter.Tags = normalizeFilterTags(filter.Tags)

	sess, err := s.store.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("beginning session: %w", err)
	}
	defer sess.Rollback()

	total, err := sess.CountTasks(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	items, err := sess.ListTasks(ctx, filter)
	if err != nil {
		return 0, nil, err
	}

	if err := sess.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing task list: %w", err)
	}
	return total, items, nil
}

// Get returns the active task with the given id, or NotFound.
func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	sess, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning session: %w", err)
	}
	defer sess.Rollback()

	task, err := getActive(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if err := sess.Commit(); err != nil {
		return nil, fmt.Errorf("committing task get: %w", err)
	}
	return task, nil
}

// Patch applies a partial update to an active task. Supplied fields
// overwrite the current values; a supplied tag list fully replaces the
// tag set (an explicit empty list clears it, omission leaves it alone).
func (s *TaskService) Patch(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	if patch.Empty() {
		return nil, apperr.NewValidation("body", "At least one field must be provided")
	}
	if patch.DueDate != nil {
		if err := s.validateDueDate(*patch.DueDate); err != nil {
			return nil, err
		}
	}

	var names []string
	if patch.Tags != nil {
		var err error
		names, err = normalizeTags(*patch.Tags)
		if err != nil {
			return nil, err
		}
	}

	sess, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning session: %w", err)
	}
	defer sess.Rollback()

	task, err := getActive(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = dateOnly(*patch.DueDate)
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	if err := sess.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	if patch.Tags != nil {
		tags, err := sess.GetOrCreateTags(ctx, names)
		if err != nil {
			return nil, err
		}
		if err := sess.ReplaceTaskTags(ctx, task.ID, tags); err != nil {
			return nil, err
		}
		task.Tags = tags
	}

	if err := sess.Commit(); err != nil {
		return nil, fmt.Errorf("committing task patch: %w", err)
	}
	return task, nil
}

// Delete soft-deletes an active task. A second delete of the same id
// surfaces NotFound, because the load step no longer sees the task.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	sess, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning session: %w", err)
	}
	defer sess.Rollback()

	task, err := getActive(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := sess.SoftDeleteTask(ctx, task); err != nil {
		return err
	}

	if err := sess.Commit(); err != nil {
		return fmt.Errorf("committing task delete: %w", err)
	}
	return nil
}

// getActive loads an active task on the given session, mapping absence to
// NotFound so no operation ever writes blindly to a missing or deleted
// record.
func getActive(ctx context.Context, sess store.Session, id int64) (*model.Task, error) {
	task, err := sess.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NewNotFound("task", id)
	}
	return task, nil
}

// validateDueDate rejects due dates strictly before today.
func (s *TaskService) validateDueDate(due time.Time) error {
	if dateOnly(due).Before(dateOnly(s.today())) {
		return apperr.NewValidation("due_date", "Must not be in the past")
	}
	return nil
}

// normalizeTags canonicalizes write-path tag input: every entry trimmed
// and lowercased, blanks rejected, duplicates collapsed preserving
// first-occurrence order.
func normalizeTags(raw []string) ([]string, error) {
	names := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		name := model.NormalizeTagName(tag)
		if name == "" {
			return nil, apperr.NewValidation("tags", "Tags cannot contain empty values")
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// normalizeFilterTags canonicalizes read-path tag input. Unlike the write
// path, blank entries are dropped, not rejected.
func normalizeFilterTags(raw []string) []string {
	names := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		name := model.NormalizeTagName(tag)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
