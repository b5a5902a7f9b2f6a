package functions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, index SemanticIndex) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.BaseDir = filepath.Join(dir, "functions")
	cfg.JournalPath = filepath.Join(dir, "journal.db")

	manager, err := NewManager(cfg, index)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestNewManager(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BaseDir = ""
		_, err := NewManager(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("journal is optional", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BaseDir = filepath.Join(t.TempDir(), "functions")

		manager, err := NewManager(cfg, nil)
		require.NoError(t, err)
		defer manager.Close()
		assert.Nil(t, manager.Journal())
	})
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	index := &fakeIndex{}
	manager := newTestManager(t, index)

	// Learn a workflow from a completed execution.
	learned, err := manager.LearnFromExecution(ctx, "collect the weekly reports and file them",
		steps("fs_list", "fs_read", "fs_move"), 1.0)
	require.NoError(t, err)
	require.True(t, learned.Learned)

	// A repeat of the same workflow reinforces rather than duplicates.
	repeat, err := manager.LearnFromExecution(ctx, "file this week's reports",
		steps("fs_list", "fs_read", "fs_move"), 1.0)
	require.NoError(t, err)
	assert.True(t, repeat.MatchedExisting)
	assert.Equal(t, learned.ID, repeat.ID)

	// A run that fails the gate is rejected without error.
	rejected, err := manager.LearnFromExecution(ctx, "quick check", steps("fs_read", "fs_list"), 1.0)
	require.NoError(t, err)
	assert.False(t, rejected.Learned)

	// The semantic index now knows the learned function.
	index.matches = []IndexMatch{{ID: learned.ID, Score: 0.92}}

	results, err := manager.Retrieve(ctx, "file the reports", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, learned.ID, results[0].Function.ID)

	guides, err := manager.RetrieveGuides(ctx, "file the reports", nil)
	require.NoError(t, err)
	assert.Contains(t, guides, results[0].Function.Title)

	// The engine reports the retrieved function's outcome back.
	require.NoError(t, manager.RecordUsage(ctx, learned.ID, true))

	record, err := manager.Store().Load(learned.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, record.Metadata.UsageCount)

	// Promotion moves it to the verified tier and raises its quality.
	require.NoError(t, manager.Store().Promote(learned.ID))
	promoted, err := manager.Store().Load(learned.ID)
	require.NoError(t, err)
	assert.Equal(t, TrustVerified, promoted.Metadata.TrustLevel)
	assert.Greater(t, promoted.Metadata.QualityScore, record.Metadata.QualityScore)

	// Maintenance runs clean over a healthy library.
	report, err := manager.Maintain(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, report.Merged)

	metrics := manager.Metrics()
	assert.Equal(t, int64(1), metrics["functions_learned"])
	assert.Equal(t, int64(1), metrics["matches_reinforced"])
	assert.Equal(t, int64(1), metrics["rejections"])
	assert.Equal(t, int64(1), metrics["maintenance_passes"])

	// Everything above left a journal trail.
	events, err := manager.Journal().Recent(ctx, 50)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	assert.NoError(t, manager.Close())
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	manager := newTestManager(t, nil)
	assert.NoError(t, manager.Close())
	assert.NoError(t, manager.Close())
}
