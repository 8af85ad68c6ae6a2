// Package scoring holds the pure compatibility math: quiz-answer overlap
// and great-circle distance. No I/O, no state.
package scoring

import (
	"math"
	"strings"
)

const earthRadiusKm = 6371

// Score computes a 0-100 compatibility score from two quiz-answer sets,
// mapping category key -> answer tags.
//
// Iteration is driven by quizA's categories: a category counts toward the
// denominator when quizB has a non-empty tag set for the same key, and
// toward the numerator when the normalized tag sets intersect. The
// asymmetry (Score(a, b) is not always Score(b, a)) is intended behavior:
// the requester's quiz decides which categories are compared.
//
// Empty or nil input on either side scores 0.
func Score(quizA, quizB map[string][]string) int {
	if len(quizA) == 0 || len(quizB) == 0 {
		return 0
	}

	total := 0
	matches := 0

	for category, aTags := range quizA {
		bSet := normalize(quizB[category])
		if len(bSet) == 0 {
			continue
		}
		total++

		for _, tag := range aTags {
			if _, ok := bSet[normalizeTag(tag)]; ok {
				matches++
				break
			}
		}
	}

	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(matches) / float64(total) * 100))
}

// HaversineKm returns the great-circle distance between two coordinates,
// rounded to the nearest kilometer.
func HaversineKm(lat1, lon1, lat2, lon2 float64) int {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return int(math.Round(earthRadiusKm * c))
}

func normalize(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if t := normalizeTag(tag); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
