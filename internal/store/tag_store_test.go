package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktracker/tests/testutil"
)

func TestGetOrCreateTagsCollapsesDuplicatesPreservingOrder(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	sess := begin(t, st)
	defer sess.Rollback()

	tags, err := sess.GetOrCreateTags(ctx, []string{"work", "urgent", "work", "urgent"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "work", tags[0].Name)
	assert.Equal(t, "urgent", tags[1].Name)
	assert.Positive(t, tags[0].ID)
	assert.Positive(t, tags[1].ID)
	require.NoError(t, sess.Commit())
}

func TestGetOrCreateTagsReusesExistingRows(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	sess := begin(t, st)
	first, err := sess.GetOrCreateTags(ctx, []string{"urgent"})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	sess = begin(t, st)
	defer sess.Rollback()
	second, err := sess.GetOrCreateTags(ctx, []string{"new", "urgent"})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())

	require.Len(t, second, 2)
	assert.Equal(t, "new", second[0].Name)
	assert.Equal(t, "urgent", second[1].Name)
	assert.Equal(t, first[0].ID, second[1].ID,
		"an existing canonical name must resolve to the same row")
}

func TestGetOrCreateTagsEmptyInput(t *testing.T) {
	st := testutil.NewTestStore(t)

	sess := begin(t, st)
	defer sess.Rollback()

	tags, err := sess.GetOrCreateTags(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestTagsAreNeverDeleted(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	task := seedTask(t, st, "tagged", 3, false, "ephemeral")
	softDelete(t, st, task)

	// The tag row survives the task's deletion and keeps its identity.
	sess := begin(t, st)
	defer sess.Rollback()
	tags, err := sess.GetOrCreateTags(ctx, []string{"ephemeral"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, task.Tags[0].ID, tags[0].ID)
}
