// Package review scores community reviews of scenarios.
package review

import (
	"fmt"
	"math"
	"slices"
)

// Category is one of the fixed rating dimensions.
type Category string

const (
	ConceptStrength      Category = "conceptStrength"
	InitialSituation     Category = "initialSituation"
	RoleClarity          Category = "roleClarity"
	MotivationTension    Category = "motivationTension"
	ToneConsistency      Category = "toneConsistency"
	DynamicCharacters    Category = "dynamicCharacters"
	NarrativeFlexibility Category = "narrativeFlexibility"
	WorldDepth           Category = "worldDepth"
	Replayability        Category = "replayability"
)

// Weights holds the fixed weight of every category.
var Weights = map[Category]float64{
	ConceptStrength:      1.5,
	InitialSituation:     1.0,
	RoleClarity:          1.0,
	MotivationTension:    1.5,
	ToneConsistency:      1.0,
	DynamicCharacters:    1.25,
	NarrativeFlexibility: 1.0,
	WorldDepth:           1.0,
	Replayability:        0.75,
}

// Categories lists every category in display order.
var Categories = []Category{
	ConceptStrength, InitialSituation, RoleClarity, MotivationTension, ToneConsistency,
	DynamicCharacters, NarrativeFlexibility, WorldDepth, Replayability,
}

const (
	MinRating = 1
	MaxRating = 5
)

// Ratings is a partial set of 1..5 ratings keyed by category.
type Ratings map[Category]int

// Validate reports the first unknown category or out-of-range rating.
func (r Ratings) Validate() error {
	for _, c := range Categories {
		v, ok := r[c]
		if ok && (v < MinRating || v > MaxRating) {
			return fmt.Errorf("rating %s out of range: %d", c, v)
		}
	}
	for c := range r {
		if _, ok := Weights[c]; !ok {
			return fmt.Errorf("unknown rating category %q", c)
		}
	}
	return nil
}

// Weighted returns the weighted mean of the provided known categories,
// normalized by the weights actually present. It returns false when r has
// no known category.
func Weighted(r Ratings) (float64, bool) {
	var sum, weights float64
	for c, v := range r {
		w, ok := Weights[c]
		if !ok {
			continue
		}
		sum += float64(v) * w
		weights += w
	}
	if weights == 0 {
		return 0, false
	}
	return sum / weights, true
}

// Display rounds a weighted score to the nearest half point within [1,5].
// It returns nil when r holds no ratings.
func Display(r Ratings) *float64 {
	w, ok := Weighted(r)
	if !ok {
		return nil
	}
	d := Round(w)
	return &d
}

// Round rounds v to the nearest half point and clamps it to [1,5].
func Round(v float64) float64 {
	v = math.Round(v*2) / 2
	return min(max(v, MinRating), MaxRating)
}

// Summary aggregates every review of one scenario.
type Summary struct {
	Count      int                  `json:"count"`
	Average    *float64             `json:"average"`
	Categories map[Category]float64 `json:"categories"`
}

// Summarize averages the weighted score of each review and every category
// across reviews. Reviews without ratings are counted but not averaged.
func Summarize(reviews []Ratings) Summary {
	s := Summary{Count: len(reviews), Categories: make(map[Category]float64)}

	var total float64
	var scored int
	sums := make(map[Category]int)
	counts := make(map[Category]int)
	for _, r := range reviews {
		if w, ok := Weighted(r); ok {
			total += w
			scored++
		}
		for c, v := range r {
			if _, ok := Weights[c]; !ok {
				continue
			}
			sums[c] += v
			counts[c]++
		}
	}
	if scored > 0 {
		avg := Round(total / float64(scored))
		s.Average = &avg
	}
	for c, n := range counts {
		s.Categories[c] = math.Round(float64(sums[c])/float64(n)*10) / 10
	}
	return s
}

// Known returns the categories present in r, in display order.
func (r Ratings) Known() []Category {
	out := make([]Category, 0, len(r))
	for _, c := range Categories {
		if _, ok := r[c]; ok {
			out = append(out, c)
		}
	}
	return slices.Clip(out)
}
