package scoring_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amora-app/amora-server/internal/scoring"
)

func TestScore_EmptyInputs(t *testing.T) {
	quiz := map[string][]string{"loveLanguage": {"gifts"}}

	assert.Equal(t, 0, scoring.Score(nil, quiz))
	assert.Equal(t, 0, scoring.Score(quiz, nil))
	assert.Equal(t, 0, scoring.Score(quiz, map[string][]string{}))
	assert.Equal(t, 0, scoring.Score(map[string][]string{}, quiz))
}

func TestScore_SelfIsFull(t *testing.T) {
	quiz := map[string][]string{
		"loveLanguage":      {"quality time"},
		"relationshipStyle": {"serious", "marriage minded"},
		"weekendVibe":       {"outdoors"},
	}

	assert.Equal(t, 100, scoring.Score(quiz, quiz))
}

func TestScore_PartialOverlapFloors(t *testing.T) {
	a := map[string][]string{
		"loveLanguage":      {"quality time"},
		"relationshipStyle": {"serious"},
		"weekendVibe":       {"outdoors"},
	}
	b := map[string][]string{
		"loveLanguage":      {"quality time"},
		"relationshipStyle": {"casual"},
		"weekendVibe":       {"netflix"},
	}

	// 1 of 3 shared categories intersect -> floor(100/3)
	assert.Equal(t, 33, scoring.Score(a, b))
}

func TestScore_NormalizesCaseAndWhitespace(t *testing.T) {
	a := map[string][]string{"loveLanguage": {"  Quality Time "}}
	b := map[string][]string{"loveLanguage": {"quality time"}}

	assert.Equal(t, 100, scoring.Score(a, b))
}

func TestScore_CategoriesMissingFromBAreSkipped(t *testing.T) {
	a := map[string][]string{
		"loveLanguage": {"gifts"},
		"weekendVibe":  {"outdoors"},
	}
	b := map[string][]string{
		"loveLanguage": {"gifts"},
	}

	// weekendVibe is absent from b, so only loveLanguage is compared.
	assert.Equal(t, 100, scoring.Score(a, b))
}

// Iteration is driven by the first argument's categories; the score is
// intentionally not symmetric.
func TestScore_Asymmetry(t *testing.T) {
	a := map[string][]string{
		"loveLanguage": {},
		"weekendVibe":  {"outdoors"},
	}
	b := map[string][]string{
		"loveLanguage": {"touch"},
		"weekendVibe":  {"outdoors"},
	}

	// a drives: loveLanguage counts (b has answers) but cannot match.
	assert.Equal(t, 50, scoring.Score(a, b))
	// b drives: a's loveLanguage set is empty, so the category is skipped.
	assert.Equal(t, 100, scoring.Score(b, a))
}

func TestScore_AlwaysInRange(t *testing.T) {
	inputs := []map[string][]string{
		nil,
		{},
		{"a": {}},
		{"a": {"x"}},
		{"a": {"x"}, "b": {"y", "z"}},
		{"a": {" X "}, "b": {""}, "c": {"y"}},
	}

	for i, qa := range inputs {
		for j, qb := range inputs {
			s := scoring.Score(qa, qb)
			assert.GreaterOrEqual(t, s, 0, fmt.Sprintf("inputs %d,%d", i, j))
			assert.LessOrEqual(t, s, 100, fmt.Sprintf("inputs %d,%d", i, j))
		}
	}
}

func TestHaversineKm_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0, scoring.HaversineKm(51.5074, -0.1278, 51.5074, -0.1278))
}

func TestHaversineKm_Symmetry(t *testing.T) {
	d1 := scoring.HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	d2 := scoring.HaversineKm(48.8566, 2.3522, 51.5074, -0.1278)
	assert.Equal(t, d1, d2)
}

func TestHaversineKm_KnownDistances(t *testing.T) {
	// London -> Paris
	assert.Equal(t, 344, scoring.HaversineKm(51.5074, -0.1278, 48.8566, 2.3522))
	// ~1.1km north of the first point rounds to 1
	assert.Equal(t, 1, scoring.HaversineKm(51.5074, -0.1278, 51.5174, -0.1278))
}
