package functions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
	"github.com/metahuman-os/workflow-memory/pkg/logging"
)

// IndexMatch is one ranked result from the external semantic index.
type IndexMatch struct {
	ID    string
	Score float64 // relevance in [0,1]
}

// SemanticIndex is the external embedding index collaborator. It maps free
// text to ranked function matches; the retriever bounds each call with a
// caller-supplied timeout and treats failures as an empty result set.
type SemanticIndex interface {
	Search(ctx context.Context, query string, limit int) ([]IndexMatch, error)
}

// RetrieveOptions tunes a single retrieval. Unset fields fall back to the
// retriever's configured defaults; MinScore and IncludeDrafts are pointers so
// an explicit zero floor or draft exclusion is expressible.
type RetrieveOptions struct {
	TopK          int
	MinScore      *float64
	IncludeDrafts *bool
	IndexTimeout  time.Duration
}

// Retriever performs semantic lookup of stored functions before planning.
// A down or slow index never blocks the planning pipeline: index errors are
// logged and degrade to an empty result.
type Retriever struct {
	store *Store
	index SemanticIndex

	topK          int
	minScore      float64
	includeDrafts bool
	indexTimeout  time.Duration
}

// NewRetriever creates a retriever over the store and index with cfg defaults.
func NewRetriever(store *Store, index SemanticIndex, cfg Config) *Retriever {
	return &Retriever{
		store:         store,
		index:         index,
		topK:          cfg.RetrievalTopK,
		minScore:      cfg.RetrievalMinScore,
		includeDrafts: cfg.IncludeDrafts,
		indexTimeout:  cfg.IndexTimeout.Std(),
	}
}

// Retrieve returns up to TopK function snapshots relevant to the query,
// ranked by descending index score and filtered by minimum score and trust
// tier inclusion.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts *RetrieveOptions) ([]RetrievedFunction, error) {
	logger := logging.GetLogger()

	topK := r.topK
	minScore := r.minScore
	includeDrafts := r.includeDrafts
	indexTimeout := r.indexTimeout
	if opts != nil {
		if opts.TopK > 0 {
			topK = opts.TopK
		}
		if opts.MinScore != nil {
			minScore = *opts.MinScore
		}
		if opts.IncludeDrafts != nil {
			includeDrafts = *opts.IncludeDrafts
		}
		if opts.IndexTimeout > 0 {
			indexTimeout = opts.IndexTimeout
		}
	}

	if r.index == nil {
		return nil, errors.New(errors.InvalidInput, "retriever has no semantic index")
	}

	indexCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	// Over-fetch so score and trust filtering still leaves topK results.
	matches, err := r.index.Search(indexCtx, query, topK*4)
	if err != nil {
		wrapped := errors.Wrap(err, errors.IndexUnavailable, "semantic index search failed")
		logger.Warn(ctx, "retrieval degraded to empty result: %v", wrapped)
		return nil, nil
	}

	var results []RetrievedFunction
	for _, match := range matches {
		if match.Score < minScore {
			continue
		}
		record, err := r.store.Load(match.ID)
		if err != nil {
			if errors.IsNotFound(err) {
				// Stale index entry for a deleted record.
				continue
			}
			return nil, err
		}
		if !includeDrafts && record.Metadata.TrustLevel == TrustDraft {
			continue
		}
		results = append(results, RetrievedFunction{Function: record, Score: match.Score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// FormatAsGuides renders retrieved functions as numbered natural-language
// workflow guides suitable for injection into a planning prompt. Internal
// metadata such as ids and scores is never exposed here.
func FormatAsGuides(matches []RetrievedFunction) string {
	if len(matches) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Known workflows that may apply:\n")
	for i, match := range matches {
		fn := match.Function
		fmt.Fprintf(&sb, "%d. %s\n", i+1, fn.Title)
		if fn.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", fn.Description)
		}

		skills := make([]string, len(fn.Steps))
		for j, step := range fn.Steps {
			skills[j] = step.SkillID
		}
		fmt.Fprintf(&sb, "   Steps: %s\n", strings.Join(skills, " -> "))

		if outcome := finalOutcome(fn.Steps); outcome != "" {
			fmt.Fprintf(&sb, "   Expected outcome: %s\n", outcome)
		}
	}
	return sb.String()
}

func finalOutcome(steps []Step) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].ExpectedOutcome != "" {
			return steps[i].ExpectedOutcome
		}
	}
	return ""
}
