package arc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreHardResistanceFromZero(t *testing.T) {
	u := Score(0, HardResistance, Normal)

	assert.Equal(t, -10, u.NewScore)
	assert.Equal(t, -10, u.Delta)
	assert.Empty(t, u.SuggestedStatusChange)
}

func TestScoreThresholds(t *testing.T) {
	tests := []struct {
		name    string
		current int
		class   Classification
		flex    Flexibility
		score   int
		status  Status
	}{
		{"normal failed", -20, HardResistance, Normal, -30, Failed},
		{"normal deviated", -15, SoftResistance, Normal, -20, Deviated},
		{"normal above deviated", -10, SoftResistance, Normal, -15, ""},
		{"rigid deviated", -5, SoftResistance, Rigid, -10, Deviated},
		{"rigid failed", -10, HardResistance, Rigid, -20, Failed},
		{"flexible deviated", -20, HardResistance, Flexible, -30, Deviated},
		{"flexible failed", -40, SoftResistance, Flexible, -45, Failed},
		{"unknown flex as normal", -25, SoftResistance, Flexibility("chaotic"), -30, Failed},
		{"aligned recovers", -25, Aligned, Normal, -15, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := Score(tt.current, tt.class, tt.flex)
			assert.Equal(t, tt.score, u.NewScore)
			assert.Equal(t, tt.status, u.SuggestedStatusChange)
		})
	}
}

func TestScoreClamps(t *testing.T) {
	for _, current := range []int{-1000, -50, -45, 0, 15, 20, 1000} {
		for _, c := range []Classification{Aligned, SoftResistance, HardResistance, "noise"} {
			u := Score(current, c, Normal)
			assert.GreaterOrEqual(t, u.NewScore, MinScore)
			assert.LessOrEqual(t, u.NewScore, MaxScore)
		}
	}
	assert.Equal(t, 20, Score(15, Aligned, Normal).NewScore)
	assert.Equal(t, -50, Score(-45, HardResistance, Normal).NewScore)
}

func TestApplyOnlyPendingClassified(t *testing.T) {
	steps := []Step{
		{ID: "a", Score: 0, Status: Pending},
		{ID: "b", Score: -25, Status: Pending},
		{ID: "c", Score: 0, Status: Succeeded},
		{ID: "d", Score: 5},
	}
	updates := Apply(steps, map[string]Classification{
		"a": Aligned,
		"b": HardResistance,
		"c": HardResistance,
	}, Normal)

	assert.Len(t, updates, 2)
	assert.Equal(t, "a", updates[0].StepID)
	assert.Equal(t, 10, steps[0].Score)
	assert.Equal(t, Failed, updates[1].SuggestedStatusChange)
	assert.Equal(t, -35, steps[1].Score)
	assert.Equal(t, 0, steps[2].Score)
	assert.Equal(t, 5, steps[3].Score)
}

func TestParseFlexibility(t *testing.T) {
	assert.Equal(t, Rigid, ParseFlexibility(" RIGID "))
	assert.Equal(t, Normal, ParseFlexibility(""))
	assert.Equal(t, Flexible, ParseFlexibility("flexible"))
}

func TestParseClassifications(t *testing.T) {
	raw := "```json\n" + `{"classifications":[
		{"step_id":"s1","classification":"aligned"},
		{"step_id":"s2","classification":"Hard_Resistance"},
		{"step_id":"s3","classification":"confused"},
		{"classification":"aligned"}
	]}` + "\n```"

	got := ParseClassifications(raw)
	assert.Equal(t, map[string]Classification{"s1": Aligned, "s2": HardResistance}, got)
}

func TestParseClassificationsMalformed(t *testing.T) {
	assert.Empty(t, ParseClassifications("I think the user is aligned."))
	assert.Empty(t, ParseClassifications(`{"classifications": [`))
	assert.Empty(t, ParseClassifications(""))
}

func TestParseClassificationsAfterBracketedProse(t *testing.T) {
	raw := `Note [1]: {"classifications":[{"step_id":"s1","classification":"soft_resistance","reason":"stalls"}]}`
	assert.Equal(t, map[string]Classification{"s1": SoftResistance}, ParseClassifications(raw))
}
