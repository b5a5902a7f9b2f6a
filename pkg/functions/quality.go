package functions

import (
	"math"
	"time"
)

// QualityWeights configures the relative importance of quality signals.
type QualityWeights struct {
	SuccessRate float64
	Usage       float64
	Recency     float64
	Trust       float64
}

// DefaultQualityWeights returns the standard weighting.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		SuccessRate: 0.4,
		Usage:       0.3,
		Recency:     0.2,
		Trust:       0.1,
	}
}

// QualityScorer computes a record's composite effectiveness score from its
// usage metadata. The score is deterministic: identical metadata at the same
// instant always yields the same value.
type QualityScorer struct {
	weights      QualityWeights
	usageCeiling float64       // uses at which the usage factor saturates
	recencyDecay time.Duration // e-folding time for the recency factor
	now          func() time.Time
}

// NewQualityScorer creates a scorer with default parameters.
func NewQualityScorer() *QualityScorer {
	return &QualityScorer{
		weights:      DefaultQualityWeights(),
		usageCeiling: 100,
		recencyDecay: 30 * 24 * time.Hour,
		now:          time.Now,
	}
}

// WithWeights sets custom quality weights.
func (qs *QualityScorer) WithWeights(w QualityWeights) *QualityScorer {
	qs.weights = w
	return qs
}

// WithClock sets the time source used for recency math.
func (qs *QualityScorer) WithClock(now func() time.Time) *QualityScorer {
	qs.now = now
	return qs
}

// Score computes the composite quality for the given metadata.
func (qs *QualityScorer) Score(meta Metadata) float64 {
	return qs.weights.SuccessRate*qs.successRate(meta) +
		qs.weights.Usage*qs.usageFactor(meta.UsageCount) +
		qs.weights.Recency*qs.recencyFactor(meta) +
		qs.weights.Trust*qs.trustBonus(meta.TrustLevel)
}

func (qs *QualityScorer) successRate(meta Metadata) float64 {
	if meta.UsageCount == 0 {
		return 0
	}
	return float64(meta.SuccessCount) / float64(meta.UsageCount)
}

// usageFactor grows logarithmically: roughly 0.5 at 10 uses and saturates
// near 1.0 around the ceiling.
func (qs *QualityScorer) usageFactor(usageCount int) float64 {
	if usageCount <= 0 {
		return 0
	}
	factor := math.Log10(float64(usageCount)+1) / math.Log10(qs.usageCeiling+1)
	return math.Min(1, factor)
}

// recencyFactor decays exponentially with time since last use. Records that
// have never been used decay from their creation time instead.
func (qs *QualityScorer) recencyFactor(meta Metadata) float64 {
	reference := meta.LastUsedAt
	if reference.IsZero() {
		reference = meta.CreatedAt
	}
	if reference.IsZero() {
		return 0
	}

	elapsed := qs.now().Sub(reference)
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Exp(-elapsed.Hours() / qs.recencyDecay.Hours())
}

func (qs *QualityScorer) trustBonus(trust TrustLevel) float64 {
	if trust == TrustVerified {
		return 1.0
	}
	return 0.0
}
