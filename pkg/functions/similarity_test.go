package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steps(skills ...string) []Step {
	result := make([]Step, len(skills))
	for i, skill := range skills {
		result[i] = Step{SkillID: skill}
	}
	return result
}

func TestSkillSimilarity(t *testing.T) {
	metric := NewJaccardSimilarity()

	t.Run("identical sets", func(t *testing.T) {
		a := steps("fs_list", "fs_read", "extract_field")
		assert.Equal(t, 1.0, metric.SkillSimilarity(a, a))
	})

	t.Run("order is ignored", func(t *testing.T) {
		a := steps("fs_list", "fs_read", "extract_field")
		b := steps("extract_field", "fs_list", "fs_read")
		assert.Equal(t, 1.0, metric.SkillSimilarity(a, b))
	})

	t.Run("repetition is ignored", func(t *testing.T) {
		a := steps("fs_list", "fs_read")
		b := steps("fs_list", "fs_list", "fs_read", "fs_read", "fs_read")
		assert.Equal(t, 1.0, metric.SkillSimilarity(a, b))
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := steps("fs_list", "fs_read", "extract_field")
		b := steps("fs_list", "fs_read", "extract_field", "send_email")
		// 3 shared of 4 distinct
		assert.InDelta(t, 0.75, metric.SkillSimilarity(a, b), 1e-9)
	})

	t.Run("disjoint sets", func(t *testing.T) {
		a := steps("fs_list")
		b := steps("send_email")
		assert.Equal(t, 0.0, metric.SkillSimilarity(a, b))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, metric.SkillSimilarity(nil, nil))
	})

	t.Run("one empty", func(t *testing.T) {
		assert.Equal(t, 0.0, metric.SkillSimilarity(steps("fs_list"), nil))
	})
}

func TestFindSimilar(t *testing.T) {
	metric := NewJaccardSimilarity()

	candidates := []*FunctionMemory{
		{ID: "exact", Steps: steps("a", "b", "c")},
		{ID: "close", Steps: steps("a", "b", "c", "d")},
		{ID: "far", Steps: steps("x", "y", "z")},
	}

	t.Run("filters by threshold and sorts descending", func(t *testing.T) {
		matches := FindSimilar(metric, steps("a", "b", "c"), candidates, 0.7)
		require.Len(t, matches, 2)
		assert.Equal(t, "exact", matches[0].Function.ID)
		assert.Equal(t, 1.0, matches[0].Score)
		assert.Equal(t, "close", matches[1].Function.ID)
		assert.InDelta(t, 0.75, matches[1].Score, 1e-9)
	})

	t.Run("no candidates above threshold", func(t *testing.T) {
		matches := FindSimilar(metric, steps("q"), candidates, 0.7)
		assert.Empty(t, matches)
	})

	t.Run("empty candidate list", func(t *testing.T) {
		matches := FindSimilar(metric, steps("a"), nil, 0.5)
		assert.Empty(t, matches)
	})
}
