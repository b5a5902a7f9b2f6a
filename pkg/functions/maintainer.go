package functions

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
	"github.com/metahuman-os/workflow-memory/pkg/logging"
)

// Maintainer is the periodic self-cleaning pass over the draft tier: it
// consolidates near-duplicate drafts into their best member and deletes
// stale, unused low-quality ones. A full pass holds the drafts lock so it
// never races a concurrent create or promote.
type Maintainer struct {
	store   *Store
	metric  Similarity
	scorer  *QualityScorer
	journal *Journal

	consolidationThreshold float64
	cleanupMinQuality      float64
	cleanupUnusedAge       time.Duration
	cleanupAbandonedAge    time.Duration

	now func() time.Time
}

// NewMaintainer creates a maintainer over the store using cfg's thresholds.
func NewMaintainer(store *Store, cfg Config) *Maintainer {
	return &Maintainer{
		store:                  store,
		metric:                 NewJaccardSimilarity(),
		scorer:                 store.Scorer(),
		consolidationThreshold: cfg.ConsolidationThreshold,
		cleanupMinQuality:      cfg.CleanupMinQuality,
		cleanupUnusedAge:       cfg.CleanupUnusedAge.Std(),
		cleanupAbandonedAge:    cfg.CleanupAbandonedAge.Std(),
		now:                    time.Now,
	}
}

// WithSimilarity swaps the similarity metric used for grouping.
func (m *Maintainer) WithSimilarity(metric Similarity) *Maintainer {
	m.metric = metric
	return m
}

// WithClock sets the time source used for age math.
func (m *Maintainer) WithClock(now func() time.Time) *Maintainer {
	m.now = now
	return m
}

// WithJournal attaches an observability journal for maintenance reports.
func (m *Maintainer) WithJournal(journal *Journal) *Maintainer {
	m.journal = journal
	return m
}

// Consolidate merges groups of near-duplicate drafts under the drafts lock.
func (m *Maintainer) Consolidate(ctx context.Context, dryRun bool) (MaintenanceReport, error) {
	var report MaintenanceReport
	err := m.store.WithDraftLock(func() error {
		var err error
		report, err = m.consolidateLocked(ctx, dryRun)
		return err
	})
	return report, err
}

// Cleanup deletes stale unused drafts under the drafts lock.
func (m *Maintainer) Cleanup(ctx context.Context, dryRun bool) (MaintenanceReport, error) {
	var report MaintenanceReport
	err := m.store.WithDraftLock(func() error {
		var err error
		report, err = m.cleanupLocked(ctx, dryRun)
		return err
	})
	return report, err
}

// Maintain runs consolidation then cleanup inside a single drafts-lock hold
// and returns the combined report.
func (m *Maintainer) Maintain(ctx context.Context, dryRun bool) (MaintenanceReport, error) {
	var report MaintenanceReport
	err := m.store.WithDraftLock(func() error {
		consolidation, err := m.consolidateLocked(ctx, dryRun)
		if err != nil {
			return err
		}
		cleanup, err := m.cleanupLocked(ctx, dryRun)
		if err != nil {
			return err
		}

		report = MaintenanceReport{
			GroupsFound:    consolidation.GroupsFound,
			Merged:         consolidation.Merged,
			Removed:        cleanup.Removed,
			SpaceReclaimed: consolidation.SpaceReclaimed + cleanup.SpaceReclaimed,
			GroupFailures:  consolidation.GroupFailures,
			DryRun:         dryRun,
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	logging.GetLogger().Info(ctx, "maintenance pass: %d groups, %d merged, %d removed, %d bytes reclaimed",
		report.GroupsFound, report.Merged, report.Removed, report.SpaceReclaimed)
	m.journal.LogMaintenance(ctx, report)
	return report, nil
}

func (m *Maintainer) consolidateLocked(ctx context.Context, dryRun bool) (MaintenanceReport, error) {
	report := MaintenanceReport{DryRun: dryRun}

	drafts, err := m.store.List(ListFilter{TrustLevel: TrustDraft})
	if err != nil {
		return report, err
	}
	if len(drafts) < 2 {
		return report, nil
	}

	groups := m.groupBySimilarity(drafts)
	report.GroupsFound = len(groups)

	for _, group := range groups {
		if err := errors.CheckContext(ctx, "consolidation"); err != nil {
			return report, err
		}

		merged, reclaimed, err := m.mergeGroup(group, dryRun)
		if err != nil {
			// A failed group aborts only itself; the pass continues and a
			// later run converges on whatever is left.
			report.GroupFailures = append(report.GroupFailures,
				fmt.Sprintf("group around %s: %v", group[0].ID, err))
			continue
		}
		report.Merged += merged
		report.SpaceReclaimed += reclaimed
	}

	return report, nil
}

// groupBySimilarity clusters drafts whose pairwise similarity meets the
// consolidation threshold, using union-find over a concurrently computed
// pair matrix. Only groups of two or more are returned, each sorted with the
// highest-quality member first.
func (m *Maintainer) groupBySimilarity(drafts []*FunctionMemory) [][]*FunctionMemory {
	n := len(drafts)
	edges := make([][]int, n)

	p := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for i := 0; i < n; i++ {
		i := i // per-iteration capture; required while go.mod targets go < 1.22
		p.Go(func() {
			for j := i + 1; j < n; j++ {
				if m.metric.SkillSimilarity(drafts[i].Steps, drafts[j].Steps) >= m.consolidationThreshold {
					edges[i] = append(edges[i], j)
				}
			}
		})
	}
	p.Wait()

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i, row := range edges {
		for _, j := range row {
			union(i, j)
		}
	}

	byRoot := make(map[int][]*FunctionMemory)
	for i, draft := range drafts {
		root := find(i)
		byRoot[root] = append(byRoot[root], draft)
	}

	var groups [][]*FunctionMemory
	for _, group := range byRoot {
		if len(group) < 2 {
			continue
		}
		// Keeper first: highest quality wins, oldest record breaks ties.
		best := 0
		for i := 1; i < len(group); i++ {
			if group[i].Metadata.QualityScore > group[best].Metadata.QualityScore ||
				(group[i].Metadata.QualityScore == group[best].Metadata.QualityScore &&
					group[i].Metadata.CreatedAt.Before(group[best].Metadata.CreatedAt)) {
				best = i
			}
		}
		group[0], group[best] = group[best], group[0]
		groups = append(groups, group)
	}
	return groups
}

// mergeGroup folds a group's usage statistics into its keeper and deletes the
// rest. The keeper is saved before any member is deleted so a crash mid-group
// loses no statistics.
func (m *Maintainer) mergeGroup(group []*FunctionMemory, dryRun bool) (int, int64, error) {
	keeper := group[0].Clone()
	losers := group[1:]

	for _, loser := range losers {
		keeper.Metadata.UsageCount += loser.Metadata.UsageCount
		keeper.Metadata.SuccessCount += loser.Metadata.SuccessCount
		if loser.Metadata.LastUsedAt.After(keeper.Metadata.LastUsedAt) {
			keeper.Metadata.LastUsedAt = loser.Metadata.LastUsedAt
		}
		keeper.Examples = append(keeper.Examples, loser.Examples...)
	}
	keeper.Metadata.QualityScore = m.scorer.Score(keeper.Metadata)

	var reclaimed int64
	for _, loser := range losers {
		if size, err := m.store.RecordSize(loser.ID); err == nil {
			reclaimed += size
		}
	}

	if dryRun {
		return len(losers), reclaimed, nil
	}

	if err := m.store.Save(keeper); err != nil {
		return 0, 0, err
	}
	for _, loser := range losers {
		if err := m.store.Delete(loser.ID); err != nil {
			return 0, 0, err
		}
	}
	return len(losers), reclaimed, nil
}

func (m *Maintainer) cleanupLocked(ctx context.Context, dryRun bool) (MaintenanceReport, error) {
	report := MaintenanceReport{DryRun: dryRun}

	drafts, err := m.store.List(ListFilter{TrustLevel: TrustDraft})
	if err != nil {
		return report, err
	}

	now := m.now()
	for _, draft := range drafts {
		if err := errors.CheckContext(ctx, "cleanup"); err != nil {
			return report, err
		}

		if !m.shouldRemove(draft, now) {
			continue
		}

		if size, err := m.store.RecordSize(draft.ID); err == nil {
			report.SpaceReclaimed += size
		}
		if !dryRun {
			if err := m.store.Delete(draft.ID); err != nil {
				report.GroupFailures = append(report.GroupFailures,
					fmt.Sprintf("cleanup of %s: %v", draft.ID, err))
				continue
			}
		}
		report.Removed++
	}

	return report, nil
}

// shouldRemove applies the cleanup policy: low-quality drafts past the grace
// age with no recorded use, and never-used drafts past the abandonment age.
func (m *Maintainer) shouldRemove(draft *FunctionMemory, now time.Time) bool {
	age := now.Sub(draft.Metadata.CreatedAt)
	unused := draft.Metadata.UsageCount == 0

	if unused && draft.Metadata.QualityScore < m.cleanupMinQuality && age > m.cleanupUnusedAge {
		return true
	}
	return unused && age > m.cleanupAbandonedAge
}
