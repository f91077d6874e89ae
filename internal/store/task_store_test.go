package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktracker/internal/model"
	"github.com/nhle/tasktracker/internal/store"
	"github.com/nhle/tasktracker/tests/testutil"
)

var testDueDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func begin(t *testing.T, st *store.SQLiteStore) store.Session {
	t.Helper()
	sess, err := st.Begin(context.Background())
	require.NoError(t, err)
	return sess
}

// seedTask creates and commits a task with the given canonical tags.
func seedTask(t *testing.T, st *store.SQLiteStore, title string, priority int, completed bool, tags ...string) *model.Task {
	t.Helper()
	ctx := context.Background()

	sess := begin(t, st)
	defer sess.Rollback()

	resolved, err := sess.GetOrCreateTags(ctx, tags)
	require.NoError(t, err)

	task := &model.Task{
		Title:     title,
		Priority:  priority,
		Completed: completed,
		DueDate:   testDueDate,
		Tags:      resolved,
	}
	require.NoError(t, sess.CreateTask(ctx, task))
	require.NoError(t, sess.Commit())
	return task
}

func softDelete(t *testing.T, st *store.SQLiteStore, task *model.Task) {
	t.Helper()
	sess := begin(t, st)
	defer sess.Rollback()
	require.NoError(t, sess.SoftDeleteTask(context.Background(), task))
	require.NoError(t, sess.Commit())
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestCreateTaskAssignsIDAndTimestamps(t *testing.T) {
	st := testutil.NewTestStore(t)

	first := seedTask(t, st, "first", 3, false)
	second := seedTask(t, st, "second", 3, false)

	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID, "ids must be monotonic")
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
}

func TestGetTaskByIDReturnsActiveTaskWithTags(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	created := seedTask(t, st, "tagged", 2, false, "work", "urgent")

	sess := begin(t, st)
	defer sess.Rollback()

	task, err := sess.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "tagged", task.Title)
	assert.Equal(t, []string{"work", "urgent"}, task.TagNames())
	assert.Equal(t, testDueDate.Format(time.DateOnly), task.DueDate.Format(time.DateOnly))
}

func TestGetTaskByIDHidesSoftDeleted(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	created := seedTask(t, st, "doomed", 2, false)
	softDelete(t, st, created)

	sess := begin(t, st)
	defer sess.Rollback()

	task, err := sess.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, task, "soft-deleted task must look like it never existed")

	missing, err := sess.GetTaskByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListTasksFilters(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	a := seedTask(t, st, "A", 5, false, "work", "urgent")
	b := seedTask(t, st, "B", 3, true, "home")
	seedTask(t, st, "C", 5, false, "personal")

	sess := begin(t, st)
	defer sess.Rollback()

	byPriority, err := sess.ListTasks(ctx, store.TaskFilter{Priority: intPtr(5)})
	require.NoError(t, err)
	require.Len(t, byPriority, 2)

	byCompleted, err := sess.ListTasks(ctx, store.TaskFilter{Completed: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, byCompleted, 1)
	assert.Equal(t, b.ID, byCompleted[0].ID)

	combined, err := sess.ListTasks(ctx, store.TaskFilter{
		Priority:  intPtr(5),
		Completed: boolPtr(false),
		Tags:      []string{"urgent"},
	})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, a.ID, combined[0].ID)
}

func TestListTasksTagAnyMatch(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	a := seedTask(t, st, "A", 3, false, "work", "urgent")
	b := seedTask(t, st, "B", 3, false, "home")
	seedTask(t, st, "C", 3, false, "personal")

	sess := begin(t, st)
	defer sess.Rollback()

	items, err := sess.ListTasks(ctx, store.TaskFilter{Tags: []string{"urgent", "home"}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)
}

func TestListTasksDeduplicatesMultiTagMatches(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	both := seedTask(t, st, "both", 3, false, "urgent", "home")

	sess := begin(t, st)
	defer sess.Rollback()

	// The task matches two of the requested tags; it must appear once.
	items, err := sess.ListTasks(ctx, store.TaskFilter{Tags: []string{"urgent", "home"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, both.ID, items[0].ID)

	count, err := sess.CountTasks(ctx, store.TaskFilter{Tags: []string{"urgent", "home"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountMatchesListForEveryFilter(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	seedTask(t, st, "A", 5, false, "work", "urgent")
	seedTask(t, st, "B", 3, true, "home")
	seedTask(t, st, "C", 5, true, "work", "home")
	deleted := seedTask(t, st, "D", 1, false, "urgent")
	softDelete(t, st, deleted)

	filters := []store.TaskFilter{
		{},
		{Completed: boolPtr(true)},
		{Completed: boolPtr(false)},
		{Priority: intPtr(5)},
		{Priority: intPtr(1)},
		{Tags: []string{"urgent"}},
		{Tags: []string{"urgent", "home"}},
		{Tags: []string{"nope"}},
		{Completed: boolPtr(true), Priority: intPtr(5), Tags: []string{"work", "home"}},
	}

	sess := begin(t, st)
	defer sess.Rollback()

	for _, filter := range filters {
		count, err := sess.CountTasks(ctx, filter)
		require.NoError(t, err)

		items, err := sess.ListTasks(ctx, filter)
		require.NoError(t, err)

		assert.Equal(t, count, len(items),
			"count and list disagree for filter %+v", filter)
	}
}

func TestListTasksPagination(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	first := seedTask(t, st, "one", 3, false)
	second := seedTask(t, st, "two", 3, false)
	third := seedTask(t, st, "three", 3, false)

	sess := begin(t, st)
	defer sess.Rollback()

	page, err := sess.ListTasks(ctx, store.TaskFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
	assert.NotEqual(t, first.ID, page[0].ID)

	total, err := sess.CountTasks(ctx, store.TaskFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "count ignores pagination")

	tail, err := sess.ListTasks(ctx, store.TaskFilter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, third.ID, tail[0].ID)
}

func TestSoftDeleteExcludesFromListAndCount(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	keep := seedTask(t, st, "keep", 3, false, "work")
	gone := seedTask(t, st, "gone", 3, false, "work")
	softDelete(t, st, gone)

	sess := begin(t, st)
	defer sess.Rollback()

	items, err := sess.ListTasks(ctx, store.TaskFilter{Tags: []string{"work"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	count, err := sess.CountTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSoftDeleteSecondCallIsNoOp(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	task := seedTask(t, st, "twice", 3, false)
	softDelete(t, st, task)
	firstStamp := *task.DeletedAt

	sess := begin(t, st)
	defer sess.Rollback()
	require.NoError(t, sess.SoftDeleteTask(ctx, task))
	require.NoError(t, sess.Commit())

	assert.True(t, task.DeletedAt.Equal(firstStamp),
		"second soft delete must not restamp deleted_at")
}

func TestUpdateTaskRefreshesUpdatedAt(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	task := seedTask(t, st, "original", 3, false)
	created := task.CreatedAt

	time.Sleep(5 * time.Millisecond)

	sess := begin(t, st)
	defer sess.Rollback()

	task.Title = "renamed"
	task.Completed = true
	require.NoError(t, sess.UpdateTask(ctx, task))
	require.NoError(t, sess.Commit())

	assert.True(t, task.UpdatedAt.After(created))

	sess = begin(t, st)
	defer sess.Rollback()
	got, err := sess.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Completed)
}

func TestReplaceTaskTags(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	task := seedTask(t, st, "retag", 3, false, "work", "urgent")

	sess := begin(t, st)
	defer sess.Rollback()

	tags, err := sess.GetOrCreateTags(ctx, []string{"home", "work"})
	require.NoError(t, err)
	require.NoError(t, sess.ReplaceTaskTags(ctx, task.ID, tags))
	require.NoError(t, sess.Commit())

	sess = begin(t, st)
	defer sess.Rollback()
	got, err := sess.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"home", "work"}, got.TagNames())

	// Clearing with an empty set removes every association.
	require.NoError(t, sess.ReplaceTaskTags(ctx, task.ID, nil))
	require.NoError(t, sess.Commit())

	sess = begin(t, st)
	defer sess.Rollback()
	got, err = sess.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Tags)
}
