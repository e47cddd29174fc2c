package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-worldgen/internal/vec"
)

func TestMemoryPositionRepo(t *testing.T) {
	exercisePositionRepo(t, NewMemoryPositionRepo())
}

func TestBadgerPositionRepo(t *testing.T) {
	repo, err := NewBadgerPositionRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	exercisePositionRepo(t, repo)
}

func exercisePositionRepo(t *testing.T, repo PositionRepo) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		want := EntityPosition{EntityID: "e1", Name: "alice", Location: vec.Vec3{X: 10, Y: 20, Z: 0}}
		require.NoError(t, repo.Save(ctx, want))

		got, found, err := repo.Load(ctx, "e1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want.Location, got.Location)
		assert.Equal(t, "alice", got.Name)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("Load unknown entity", func(t *testing.T) {
		_, found, err := repo.Load(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Move updates the room index", func(t *testing.T) {
		from := vec.Vec3{X: 1, Y: 2}
		to := vec.Vec3{X: 1, Y: 3}
		require.NoError(t, repo.Save(ctx, EntityPosition{EntityID: "e2", Location: from}))
		require.NoError(t, repo.Save(ctx, EntityPosition{EntityID: "e2", Location: to}))

		at, err := repo.FindAt(ctx, from)
		require.NoError(t, err)
		assert.Empty(t, at)

		at, err = repo.FindAt(ctx, to)
		require.NoError(t, err)
		require.Len(t, at, 1)
		assert.Equal(t, "e2", at[0].EntityID)
	})

	t.Run("FindAt is ordered", func(t *testing.T) {
		loc := vec.Vec3{X: 7, Y: 7}
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, repo.Save(ctx, EntityPosition{EntityID: id, Location: loc}))
		}
		at, err := repo.FindAt(ctx, loc)
		require.NoError(t, err)
		require.Len(t, at, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{at[0].EntityID, at[1].EntityID, at[2].EntityID})
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "e1"))
		_, found, err := repo.Load(ctx, "e1")
		require.NoError(t, err)
		assert.False(t, found)

		assert.ErrorIs(t, repo.Delete(ctx, "e1"), ErrPositionNotFound)
	})

	t.Run("Empty ID is rejected", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, EntityPosition{}))
	})
}

func TestMemoryPositionRepo_Concurrent(t *testing.T) {
	repo := NewMemoryPositionRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("e%d", i)
			for step := 0; step < 20; step++ {
				_ = repo.Save(ctx, EntityPosition{EntityID: id, Location: vec.Vec3{X: step % 3}})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, repo.Count())
	total := 0
	for x := 0; x < 3; x++ {
		at, err := repo.FindAt(ctx, vec.Vec3{X: x})
		require.NoError(t, err)
		total += len(at)
	}
	assert.Equal(t, 50, total)
}
