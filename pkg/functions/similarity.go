package functions

import "sort"

// Similarity scores how alike two step sequences are. The default
// implementation is set-based and order-insensitive; callers depend on this
// interface so an ordered metric can replace it without touching the learning
// gate or the maintainer.
type Similarity interface {
	SkillSimilarity(a, b []Step) float64
}

// JaccardSimilarity implements Similarity as a Jaccard index over the sets of
// skill ids used. Step order and repeat counts are deliberately ignored; two
// workflows running the same skills in a different sequence are treated as
// duplicates.
type JaccardSimilarity struct{}

// NewJaccardSimilarity returns the default set-based similarity metric.
func NewJaccardSimilarity() *JaccardSimilarity {
	return &JaccardSimilarity{}
}

// SkillSimilarity computes |A ∩ B| / |A ∪ B| over skill-id sets.
func (j *JaccardSimilarity) SkillSimilarity(a, b []Step) float64 {
	return jaccard(skillSet(a), skillSet(b))
}

func skillSet(steps []Step) map[string]bool {
	set := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.SkillID != "" {
			set[s.SkillID] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for skill := range a {
		if b[skill] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// SimilarFunction pairs a candidate with its similarity to the probe steps.
type SimilarFunction struct {
	Function *FunctionMemory
	Score    float64
}

// FindSimilar returns every candidate whose similarity to steps meets the
// threshold, sorted by descending score.
func FindSimilar(metric Similarity, steps []Step, candidates []*FunctionMemory, threshold float64) []SimilarFunction {
	var matches []SimilarFunction
	for _, candidate := range candidates {
		score := metric.SkillSimilarity(steps, candidate.Steps)
		if score >= threshold {
			matches = append(matches, SimilarFunction{Function: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}
