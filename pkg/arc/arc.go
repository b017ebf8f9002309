// Package arc tracks how a roleplay session follows a story arc. Each pending
// step carries a running score that moves with the classified user behavior.
package arc

import (
	"strings"
)

type Classification string

const (
	Aligned        Classification = "aligned"
	SoftResistance Classification = "soft_resistance"
	HardResistance Classification = "hard_resistance"
)

type Flexibility string

const (
	Rigid    Flexibility = "rigid"
	Normal   Flexibility = "normal"
	Flexible Flexibility = "flexible"
)

type Status string

const (
	Pending   Status = "pending"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Deviated  Status = "deviated"
)

const (
	MinScore = -50
	MaxScore = 20
)

// Step is a narrative milestone with its running alignment score.
type Step struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Score       int    `json:"score"`
	Status      Status `json:"status"`
}

// Update describes the effect of one classification on one step.
type Update struct {
	StepID                string         `json:"step_id"`
	Classification        Classification `json:"classification"`
	PreviousScore         int            `json:"previous_score"`
	NewScore              int            `json:"new_score"`
	Delta                 int            `json:"delta"`
	SuggestedStatusChange Status         `json:"suggested_status_change,omitempty"`
}

type thresholds struct {
	failed   int
	deviated int
}

var table = map[Flexibility]thresholds{
	Rigid:    {failed: -20, deviated: -10},
	Normal:   {failed: -30, deviated: -20},
	Flexible: {failed: -45, deviated: -30},
}

// ParseClassification normalizes s, returning false for unknown values.
func ParseClassification(s string) (Classification, bool) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Aligned, SoftResistance, HardResistance:
		return c, true
	}
	return "", false
}

// ParseFlexibility normalizes s; anything unknown is Normal.
func ParseFlexibility(s string) Flexibility {
	f := Flexibility(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := table[f]; ok {
		return f
	}
	return Normal
}

// Delta is the score change for a classification.
func Delta(c Classification) int {
	switch c {
	case Aligned:
		return 10
	case SoftResistance:
		return -5
	case HardResistance:
		return -10
	}
	return 0
}

// Score applies c to the current score and suggests a status change when the
// new score crosses the flexibility's failed or deviated threshold.
func Score(current int, c Classification, flex Flexibility) Update {
	th, ok := table[flex]
	if !ok {
		th = table[Normal]
	}
	d := Delta(c)
	next := min(max(current+d, MinScore), MaxScore)

	u := Update{
		Classification: c,
		PreviousScore:  current,
		NewScore:       next,
		Delta:          d,
	}
	switch {
	case next <= th.failed:
		u.SuggestedStatusChange = Failed
	case next <= th.deviated:
		u.SuggestedStatusChange = Deviated
	}
	return u
}

// Apply scores every pending step that has a classification and writes the
// new scores back into steps. Suggested status changes are reported but not
// applied; the caller decides whether to accept them.
func Apply(steps []Step, classes map[string]Classification, flex Flexibility) []Update {
	var out []Update
	for i := range steps {
		st := &steps[i]
		if st.Status != "" && st.Status != Pending {
			continue
		}
		c, ok := classes[st.ID]
		if !ok {
			continue
		}
		u := Score(st.Score, c, flex)
		u.StepID = st.ID
		st.Score = u.NewScore
		out = append(out, u)
	}
	return out
}
