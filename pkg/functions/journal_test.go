package functions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournal(t *testing.T) {
	ctx := context.Background()

	t.Run("records decisions with reasons", func(t *testing.T) {
		journal := newTestJournal(t)

		journal.LogDecision(ctx, DecisionLearned, "fn-1", "")
		journal.LogDecision(ctx, DecisionRejected, "", "too few steps: 2 (minimum 3)")

		events, err := journal.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)

		// Newest first.
		assert.Equal(t, string(DecisionRejected), events[0].Kind)
		assert.Contains(t, events[0].Reason, "too few steps")
		assert.Equal(t, string(DecisionLearned), events[1].Kind)
		assert.Equal(t, "fn-1", events[1].FunctionID)
	})

	t.Run("records usage outcomes", func(t *testing.T) {
		journal := newTestJournal(t)

		journal.LogUsage(ctx, "fn-1", true)
		journal.LogUsage(ctx, "fn-1", false)

		events, err := journal.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "usage", events[0].Kind)
		assert.Contains(t, events[0].Details, `"success":false`)
		assert.Contains(t, events[1].Details, `"success":true`)
	})

	t.Run("records maintenance reports as json", func(t *testing.T) {
		journal := newTestJournal(t)

		journal.LogMaintenance(ctx, MaintenanceReport{GroupsFound: 2, Merged: 3, Removed: 1})

		events, err := journal.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "maintenance", events[0].Kind)
		assert.Contains(t, events[0].Details, `"merged":3`)
	})

	t.Run("recent honors the limit", func(t *testing.T) {
		journal := newTestJournal(t)

		for i := 0; i < 5; i++ {
			journal.LogUsage(ctx, "fn-1", true)
		}

		events, err := journal.Recent(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("nil journal is inert", func(t *testing.T) {
		var journal *Journal

		journal.LogDecision(ctx, DecisionLearned, "fn-1", "")
		journal.LogUsage(ctx, "fn-1", true)
		journal.LogMaintenance(ctx, MaintenanceReport{})

		events, err := journal.Recent(ctx, 10)
		assert.NoError(t, err)
		assert.Empty(t, events)
		assert.NoError(t, journal.Close())
	})

	t.Run("reopening preserves events", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "journal.db")

		journal, err := OpenJournal(path)
		require.NoError(t, err)
		journal.LogUsage(ctx, "fn-1", true)
		require.NoError(t, journal.Close())

		reopened, err := OpenJournal(path)
		require.NoError(t, err)
		defer reopened.Close()

		events, err := reopened.Recent(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
