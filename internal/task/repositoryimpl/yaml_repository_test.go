package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func fixture(title string, updatedAt time.Time) *task.Task {
	return &task.Task{
		ID:        task.NewID(),
		Title:     title,
		Status:    task.StatusInbox,
		Priority:  task.PriorityP2,
		Owner:     "ultron",
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	tsk := fixture("round trip", time.Now())
	tsk.Notes = []task.Note{{Text: "a note", Actor: "codi", CreatedAt: time.Now()}}
	require.NoError(t, repo.Create(ctx, tsk))

	got, err := repo.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, tsk.Title, got.Title)
	assert.Equal(t, tsk.Status, got.Status)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "a note", got.Notes[0].Text)
}

func TestCreateDuplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	tsk := fixture("dup", time.Now())
	require.NoError(t, repo.Create(ctx, tsk))
	err := repo.Create(ctx, tsk)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
}

func TestGetMissing(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Get(context.Background(), "mcl-missing")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestListOrderedByUpdatedAtDesc(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	oldest := fixture("oldest", now.Add(-2*time.Hour))
	newest := fixture("newest", now)
	middle := fixture("middle", now.Add(-time.Hour))
	for _, tsk := range []*task.Task{oldest, newest, middle} {
		require.NoError(t, repo.Create(ctx, tsk))
	}

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, newest.ID, tasks[0].ID)
	assert.Equal(t, middle.ID, tasks[1].ID)
	assert.Equal(t, oldest.ID, tasks[2].ID)
}

func TestUpdateMissing(t *testing.T) {
	repo := newRepo(t)
	err := repo.Update(context.Background(), fixture("nowhere", time.Now()))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestReplaceAll(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, fixture("before", time.Now())))

	replacement := fixture("after", time.Now())
	require.NoError(t, repo.ReplaceAll(ctx, []*task.Task{replacement}))

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, replacement.ID, tasks[0].ID)
}
