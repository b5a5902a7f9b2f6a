package functions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestQualityScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewQualityScorer().WithClock(fixedClock(now))

	t.Run("zero usage scores only recency", func(t *testing.T) {
		meta := Metadata{
			TrustLevel: TrustDraft,
			CreatedAt:  now,
		}
		// successRate 0, usageFactor 0, recency 1, trust 0
		assert.InDelta(t, 0.2, scorer.Score(meta), 1e-9)
	})

	t.Run("usage factor is roughly half at ten uses", func(t *testing.T) {
		meta := Metadata{
			TrustLevel: TrustDraft,
			UsageCount: 10,
			LastUsedAt: now,
		}
		// log10(11)/log10(101) ≈ 0.519
		assert.InDelta(t, 0.519, scorer.usageFactor(meta.UsageCount), 0.001)
	})

	t.Run("usage factor saturates at the ceiling", func(t *testing.T) {
		assert.InDelta(t, 1.0, scorer.usageFactor(100), 1e-9)
		assert.Equal(t, 1.0, scorer.usageFactor(100000))
	})

	t.Run("recency decays with a thirty day e-folding", func(t *testing.T) {
		meta := Metadata{LastUsedAt: now.Add(-30 * 24 * time.Hour)}
		assert.InDelta(t, 0.3679, scorer.recencyFactor(meta), 0.001)

		meta.LastUsedAt = now
		assert.InDelta(t, 1.0, scorer.recencyFactor(meta), 1e-9)
	})

	t.Run("never-used records decay from creation", func(t *testing.T) {
		meta := Metadata{CreatedAt: now.Add(-30 * 24 * time.Hour)}
		assert.InDelta(t, 0.3679, scorer.recencyFactor(meta), 0.001)
	})

	t.Run("verified trust adds the full bonus", func(t *testing.T) {
		draft := Metadata{
			TrustLevel:   TrustDraft,
			UsageCount:   5,
			SuccessCount: 5,
			LastUsedAt:   now,
		}
		verified := draft
		verified.TrustLevel = TrustVerified

		assert.InDelta(t, 0.1, scorer.Score(verified)-scorer.Score(draft), 1e-9)
	})

	t.Run("score stays within unit interval", func(t *testing.T) {
		meta := Metadata{
			TrustLevel:   TrustVerified,
			UsageCount:   100000,
			SuccessCount: 100000,
			LastUsedAt:   now,
		}
		score := scorer.Score(meta)
		assert.LessOrEqual(t, score, 1.0)
		assert.Greater(t, score, 0.99)
	})
}

func TestQualityMonotonicity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewQualityScorer().WithClock(fixedClock(now))

	// Holding usage and recency fixed, more successes never lowers the score.
	previous := -1.0
	for successes := 0; successes <= 20; successes++ {
		meta := Metadata{
			TrustLevel:   TrustDraft,
			UsageCount:   20,
			SuccessCount: successes,
			LastUsedAt:   now.Add(-24 * time.Hour),
		}
		score := scorer.Score(meta)
		assert.GreaterOrEqual(t, score, previous,
			"score decreased when successCount rose to %d", successes)
		previous = score
	}
}

func TestQualityDeterminism(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewQualityScorer().WithClock(fixedClock(now))

	meta := Metadata{
		TrustLevel:   TrustDraft,
		UsageCount:   7,
		SuccessCount: 6,
		LastUsedAt:   now.Add(-36 * time.Hour),
	}
	assert.Equal(t, scorer.Score(meta), scorer.Score(meta))
}
