package functions

import (
	"context"
	"fmt"
	"time"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
	"github.com/metahuman-os/workflow-memory/pkg/logging"
)

// LearningGate decides, after a completed execution, whether the executed
// step sequence becomes a new draft function or reinforces an existing one.
// Rejections are non-fatal to the host pipeline: they come back as a
// structured reason inside LearnResult, not as an error.
type LearningGate struct {
	store   *Store
	metric  Similarity
	scorer  *QualityScorer
	journal *Journal

	minSteps           int
	maxSteps           int
	minSuccessRate     float64
	minUniqueSkills    int
	maxRepetitionRatio float64
	matchThreshold     float64
}

// NewLearningGate creates a gate over the given store using cfg's thresholds.
func NewLearningGate(store *Store, cfg Config) *LearningGate {
	return &LearningGate{
		store:              store,
		metric:             NewJaccardSimilarity(),
		scorer:             store.Scorer(),
		minSteps:           cfg.MinSteps,
		maxSteps:           cfg.MaxSteps,
		minSuccessRate:     cfg.MinSuccessRate,
		minUniqueSkills:    cfg.MinUniqueSkills,
		maxRepetitionRatio: cfg.MaxRepetitionRatio,
		matchThreshold:     cfg.MatchThreshold,
	}
}

// WithSimilarity swaps the similarity metric used for deduplication.
func (g *LearningGate) WithSimilarity(metric Similarity) *LearningGate {
	g.metric = metric
	return g
}

// WithJournal attaches an observability journal for gate decisions.
func (g *LearningGate) WithJournal(journal *Journal) *LearningGate {
	g.journal = journal
	return g
}

// DetectAndLearn runs the learning gate for one completed execution. When
// the sequence passes validation it is deduplicated against both trust tiers
// under the drafts lock: a similar existing function is reinforced through
// RecordUsage, otherwise a new draft is created.
func (g *LearningGate) DetectAndLearn(ctx context.Context, goalText string, steps []Step, successRate float64) (LearnResult, error) {
	if err := errors.CheckContext(ctx, "detect and learn"); err != nil {
		return LearnResult{}, err
	}

	logger := logging.GetLogger()

	if reason := g.shouldLearn(steps, successRate); reason != "" {
		logger.Debug(ctx, "learning gate rejected sequence: %s", reason)
		result := LearnResult{Learned: false, Reason: reason}
		g.journal.LogDecision(ctx, DecisionRejected, "", reason)
		return result, nil
	}

	var result LearnResult
	err := g.store.WithDraftLock(func() error {
		candidates, err := g.store.List(ListFilter{})
		if err != nil {
			return err
		}

		matches := FindSimilar(g.metric, steps, candidates, g.matchThreshold)
		if len(matches) > 0 {
			best := matches[0]
			if err := g.recordUsage(ctx, best.Function.ID, true); err != nil {
				return err
			}
			logger.Info(ctx, "reinforced existing function %s (similarity %.2f)", best.Function.ID, best.Score)
			result = LearnResult{Learned: false, MatchedExisting: true, ID: best.Function.ID}
			g.journal.LogDecision(ctx, DecisionReinforced, best.Function.ID, "")
			return nil
		}

		record := g.buildDraft(goalText, steps, successRate)
		id, err := g.store.Create(record)
		if err != nil {
			return err
		}
		logger.Info(ctx, "learned new draft function %s (%s)", id, record.Metadata.PatternType)
		result = LearnResult{Learned: true, ID: id}
		g.journal.LogDecision(ctx, DecisionLearned, id, "")
		return nil
	})
	if err != nil {
		return LearnResult{}, err
	}

	return result, nil
}

// RecordUsage is the single entry point for usage-counter mutation: it bumps
// the counts, stamps the use time and recomputes the quality score in one
// load-modify-save cycle. The cycle runs under the drafts lock so a
// maintenance pass can never merge the record from a stale snapshot while
// the update is in flight.
func (g *LearningGate) RecordUsage(ctx context.Context, id string, success bool) error {
	return g.store.WithDraftLock(func() error {
		return g.recordUsage(ctx, id, success)
	})
}

// recordUsage is the lock-free body of RecordUsage, for callers already
// holding the drafts lock.
func (g *LearningGate) recordUsage(ctx context.Context, id string, success bool) error {
	record, err := g.store.Load(id)
	if err != nil {
		return err
	}

	record.Metadata.UsageCount++
	if success {
		record.Metadata.SuccessCount++
	}
	record.Metadata.LastUsedAt = time.Now()
	record.Metadata.QualityScore = g.scorer.Score(record.Metadata)

	if err := g.store.Save(record); err != nil {
		return err
	}
	g.journal.LogUsage(ctx, id, success)
	return nil
}

// shouldLearn validates a sequence against the gate thresholds and returns a
// rejection reason, or "" when the sequence qualifies.
func (g *LearningGate) shouldLearn(steps []Step, successRate float64) string {
	if len(steps) < g.minSteps {
		return fmt.Sprintf("too few steps: %d (minimum %d)", len(steps), g.minSteps)
	}
	if len(steps) > g.maxSteps {
		return fmt.Sprintf("too many steps: %d (maximum %d)", len(steps), g.maxSteps)
	}
	if successRate < g.minSuccessRate {
		return fmt.Sprintf("success rate %.2f below minimum %.2f", successRate, g.minSuccessRate)
	}

	skills := skillSet(steps)
	if len(skills) < g.minUniqueSkills {
		return fmt.Sprintf("only %d unique skills (minimum %d)", len(skills), g.minUniqueSkills)
	}

	counts := make(map[string]int)
	dominant := 0
	for _, step := range steps {
		counts[step.SkillID]++
		if counts[step.SkillID] > dominant {
			dominant = counts[step.SkillID]
		}
	}
	if ratio := float64(dominant) / float64(len(steps)); ratio > g.maxRepetitionRatio {
		return fmt.Sprintf("dominant skill repetition %.2f exceeds %.2f", ratio, g.maxRepetitionRatio)
	}

	return ""
}

func (g *LearningGate) buildDraft(goalText string, steps []Step, successRate float64) *FunctionMemory {
	pattern := ClassifyPattern(steps)
	now := time.Now()

	return &FunctionMemory{
		Title:       GenerateTitle(pattern, goalText, steps),
		Description: fmt.Sprintf("Auto-learned %d-step workflow (%s)", len(steps), pattern),
		Steps:       steps,
		Examples: []Example{{
			GoalText:      goalText,
			ResultSummary: fmt.Sprintf("completed with %.0f%% success", successRate*100),
		}},
		Metadata: Metadata{
			TrustLevel:   TrustDraft,
			UsageCount:   1,
			SuccessCount: 1,
			LastUsedAt:   now,
			PatternType:  pattern,
		},
	}
}
