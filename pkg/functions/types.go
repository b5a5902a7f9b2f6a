// Package functions implements a learned workflow library for autonomous
// agents: successful multi-step executions are persisted as reusable function
// records, deduplicated by skill similarity, scored for quality, retrieved
// semantically before planning, and periodically consolidated.
package functions

import (
	"time"
)

// TrustLevel is the trust tier of a function record. Records start as drafts
// and may be promoted to verified; the reverse transition does not exist.
type TrustLevel string

const (
	TrustDraft    TrustLevel = "draft"
	TrustVerified TrustLevel = "verified"
)

// Valid reports whether the trust level is one of the known tiers.
func (t TrustLevel) Valid() bool {
	return t == TrustDraft || t == TrustVerified
}

// PatternType is the coarse category of a workflow's dominant operation.
type PatternType string

const (
	PatternCRUD           PatternType = "crud"
	PatternDataTransform  PatternType = "data_transform"
	PatternSearchAnalyze  PatternType = "search_analyze"
	PatternCommunication  PatternType = "communication"
	PatternFileManagement PatternType = "file_management"
	PatternGeneral        PatternType = "general"
)

// Step is a single action within a function's workflow. Order is meaningful
// for execution even though similarity matching ignores it.
type Step struct {
	SkillID         string `json:"skill_id" validate:"required"`
	InputTemplate   string `json:"input_template,omitempty"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
}

// Example records one goal the function was observed completing.
type Example struct {
	GoalText      string `json:"goal_text"`
	ResultSummary string `json:"result_summary"`
}

// Metadata carries the usage statistics and derived quality of a record.
// QualityScore is always recomputed from the other fields, never set directly.
type Metadata struct {
	TrustLevel   TrustLevel  `json:"trust_level" validate:"required,oneof=draft verified"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	UsageCount   int         `json:"usage_count" validate:"gte=0"`
	SuccessCount int         `json:"success_count" validate:"gte=0,ltefield=UsageCount"`
	LastUsedAt   time.Time   `json:"last_used_at,omitzero"`
	QualityScore float64     `json:"quality_score" validate:"gte=0,lte=1"`
	PatternType  PatternType `json:"pattern_type"`
}

// FunctionMemory is the persisted workflow record, one JSON document per id.
type FunctionMemory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	Steps       []Step    `json:"steps" validate:"required,min=1,dive"`
	Examples    []Example `json:"examples,omitempty"`
	Metadata    Metadata  `json:"metadata"`
}

// SuccessRate returns the ratio of successful uses to total uses.
func (f *FunctionMemory) SuccessRate() float64 {
	if f.Metadata.UsageCount == 0 {
		return 0
	}
	return float64(f.Metadata.SuccessCount) / float64(f.Metadata.UsageCount)
}

// SkillSet returns the set of distinct skill ids used by the function's steps.
func (f *FunctionMemory) SkillSet() map[string]bool {
	return skillSet(f.Steps)
}

// Clone returns a deep copy so callers can hand out read-only snapshots.
func (f *FunctionMemory) Clone() *FunctionMemory {
	if f == nil {
		return nil
	}
	clone := *f
	clone.Steps = make([]Step, len(f.Steps))
	copy(clone.Steps, f.Steps)
	clone.Examples = make([]Example, len(f.Examples))
	copy(clone.Examples, f.Examples)
	return &clone
}

// LearnResult is the outcome of a learning-gate decision.
type LearnResult struct {
	Learned         bool   `json:"learned"`
	MatchedExisting bool   `json:"matched_existing,omitempty"`
	ID              string `json:"id,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// RetrievedFunction pairs a record snapshot with its semantic relevance score.
type RetrievedFunction struct {
	Function *FunctionMemory
	Score    float64
}

// MaintenanceReport summarizes one consolidation + cleanup pass.
type MaintenanceReport struct {
	GroupsFound    int      `json:"groups_found"`
	Merged         int      `json:"merged"`
	Removed        int      `json:"removed"`
	SpaceReclaimed int64    `json:"space_reclaimed"`
	GroupFailures  []string `json:"group_failures,omitempty"`
	DryRun         bool     `json:"dry_run,omitempty"`
}
