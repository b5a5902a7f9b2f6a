package functions

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex is a canned SemanticIndex for retrieval tests.
type fakeIndex struct {
	matches []IndexMatch
	err     error
	queries []string
}

func (f *fakeIndex) Search(_ context.Context, query string, _ int) ([]IndexMatch, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func seedRetrievalStore(t *testing.T) (*Store, []string) {
	t.Helper()
	store := newTestStore(t)

	ids := make([]string, 0, 3)
	for i, skills := range [][]string{
		{"fs_list", "fs_read", "extract_field"},
		{"db_query", "transform_json", "db_insert"},
		{"draft_message", "send_email"},
	} {
		record := draftRecord(fmt.Sprintf("Workflow %d", i+1), skills...)
		record.Steps[len(record.Steps)-1].ExpectedOutcome = fmt.Sprintf("outcome %d", i+1)
		id, err := store.Create(record)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return store, ids
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks by score and honors topK", func(t *testing.T) {
		store, ids := seedRetrievalStore(t)
		index := &fakeIndex{matches: []IndexMatch{
			{ID: ids[0], Score: 0.7},
			{ID: ids[1], Score: 0.9},
			{ID: ids[2], Score: 0.8},
		}}
		retriever := NewRetriever(store, index, DefaultConfig())

		results, err := retriever.Retrieve(ctx, "move data around", &RetrieveOptions{TopK: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, ids[1], results[0].Function.ID)
		assert.Equal(t, ids[2], results[1].Function.ID)
	})

	t.Run("drops matches below the score floor", func(t *testing.T) {
		store, ids := seedRetrievalStore(t)
		index := &fakeIndex{matches: []IndexMatch{
			{ID: ids[0], Score: 0.59},
			{ID: ids[1], Score: 0.61},
		}}
		retriever := NewRetriever(store, index, DefaultConfig())

		results, err := retriever.Retrieve(ctx, "query", nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, ids[1], results[0].Function.ID)
	})

	t.Run("explicit zero score floor admits everything", func(t *testing.T) {
		store, ids := seedRetrievalStore(t)
		index := &fakeIndex{matches: []IndexMatch{
			{ID: ids[0], Score: 0.2},
			{ID: ids[1], Score: 0.1},
		}}
		retriever := NewRetriever(store, index, DefaultConfig())

		floor := 0.0
		results, err := retriever.Retrieve(ctx, "query", &RetrieveOptions{MinScore: &floor})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("excludes drafts when asked", func(t *testing.T) {
		store, ids := seedRetrievalStore(t)
		require.NoError(t, store.Promote(ids[0]))
		index := &fakeIndex{matches: []IndexMatch{
			{ID: ids[0], Score: 0.9},
			{ID: ids[1], Score: 0.9},
		}}
		retriever := NewRetriever(store, index, DefaultConfig())

		verified := false
		results, err := retriever.Retrieve(ctx, "query", &RetrieveOptions{IncludeDrafts: &verified})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, ids[0], results[0].Function.ID)
		assert.Equal(t, TrustVerified, results[0].Function.Metadata.TrustLevel)
	})

	t.Run("index failure degrades to empty", func(t *testing.T) {
		store, _ := seedRetrievalStore(t)
		index := &fakeIndex{err: fmt.Errorf("connection refused")}
		retriever := NewRetriever(store, index, DefaultConfig())

		results, err := retriever.Retrieve(ctx, "query", nil)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("skips stale index entries", func(t *testing.T) {
		store, ids := seedRetrievalStore(t)
		index := &fakeIndex{matches: []IndexMatch{
			{ID: "deleted-long-ago", Score: 0.95},
			{ID: ids[0], Score: 0.8},
		}}
		retriever := NewRetriever(store, index, DefaultConfig())

		results, err := retriever.Retrieve(ctx, "query", nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, ids[0], results[0].Function.ID)
	})

	t.Run("nil index is an error", func(t *testing.T) {
		store, _ := seedRetrievalStore(t)
		retriever := NewRetriever(store, nil, DefaultConfig())

		_, err := retriever.Retrieve(ctx, "query", nil)
		assert.Error(t, err)
	})
}

func TestFormatAsGuides(t *testing.T) {
	t.Run("empty input renders nothing", func(t *testing.T) {
		assert.Empty(t, FormatAsGuides(nil))
	})

	t.Run("renders titles steps and outcome without internals", func(t *testing.T) {
		store, ids := seedRetrievalStore(t)
		record, err := store.Load(ids[0])
		require.NoError(t, err)

		guides := FormatAsGuides([]RetrievedFunction{{Function: record, Score: 0.91}})
		assert.Contains(t, guides, "Known workflows that may apply:")
		assert.Contains(t, guides, "1. Workflow 1")
		assert.Contains(t, guides, "Steps: fs_list -> fs_read -> extract_field")
		assert.Contains(t, guides, "Expected outcome: outcome 1")
		assert.NotContains(t, guides, ids[0])
		assert.NotContains(t, guides, "0.91")
	})
}
