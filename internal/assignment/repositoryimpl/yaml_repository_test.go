package repositoryimpl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultronlabs/missionctl/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func TestAssignIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	created, err := repo.Assign(ctx, "mcl-1", "codi", now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Assign(ctx, "mcl-1", "codi", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)

	// The original timestamp survives the repeat call.
	a, err := repo.Get(ctx, "mcl-1", "codi")
	require.NoError(t, err)
	assert.WithinDuration(t, now, a.AssignedAt, time.Second)
}

func TestMarkSeenFirstOnly(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Assign(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)

	first := time.Now()
	require.NoError(t, repo.MarkSeen(ctx, "codi", first))
	require.NoError(t, repo.MarkSeen(ctx, "codi", first.Add(time.Hour)))

	a, err := repo.Get(ctx, "mcl-1", "codi")
	require.NoError(t, err)
	require.NotNil(t, a.SeenAt)
	assert.WithinDuration(t, first, *a.SeenAt, time.Second)
}

func TestClaimCAS(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Assign(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)

	won, err := repo.Claim(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.Claim(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)
	assert.False(t, won)

	// Unknown pair: lost, not an error.
	won, err = repo.Claim(ctx, "mcl-404", "codi", time.Now())
	require.NoError(t, err)
	assert.False(t, won)
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Assign(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.Claim(ctx, "mcl-1", "codi", time.Now())
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestCompletedClosesPair(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Assign(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, "mcl-1", "codi", time.Now()))
	require.NoError(t, repo.Complete(ctx, "mcl-1", "codi", time.Now()))

	open, err := repo.ListOpenByAgent(ctx, "codi")
	require.NoError(t, err)
	assert.Empty(t, open)

	won, err := repo.Claim(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)
	assert.False(t, won)
}

func TestDeleteByTaskCascade(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Assign(ctx, "mcl-1", "codi", time.Now())
	require.NoError(t, err)
	_, err = repo.Assign(ctx, "mcl-1", "scout", time.Now())
	require.NoError(t, err)
	_, err = repo.Assign(ctx, "mcl-2", "codi", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByTask(ctx, "mcl-1"))

	open, err := repo.ListOpenByAgent(ctx, "codi")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "mcl-2", open[0].TaskID)

	open, err = repo.ListOpenByAgent(ctx, "scout")
	require.NoError(t, err)
	assert.Empty(t, open)
}
