package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/pedagogue/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewRunRepository(backend)
	ctx := context.Background()

	run, err := repo.LastRun(ctx, "claude")
	require.NoError(t, err)
	assert.Nil(t, run)

	started := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveRun(ctx, &core.Run{Model: "claude", StartedAt: started, Selected: 4, Persisted: 3, Skipped: 1}))
	require.NoError(t, repo.SaveRun(ctx, &core.Run{Model: "claude", StartedAt: started.Add(time.Hour), Selected: 1, Persisted: 1}))

	run, err = repo.LastRun(ctx, "claude")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Selected)
	assert.True(t, run.StartedAt.Equal(started.Add(time.Hour)))

	assert.ErrorIs(t, repo.SaveRun(ctx, &core.Run{}), core.ErrEmptyModel)
}
