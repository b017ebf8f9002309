package arc

import (
	"encoding/json"

	"github.com/charmbracelet/log"

	"taleweaver/pkg/utils"
)

// Verdict is one classifier judgement as emitted by the model.
type Verdict struct {
	StepID         string `json:"step_id" jsonschema_description:"Identifier of the arc step being judged"`
	Classification string `json:"classification" jsonschema:"enum=aligned,enum=soft_resistance,enum=hard_resistance" jsonschema_description:"How the user's latest action relates to the step"`
	Reason         string `json:"reason" jsonschema_description:"One short sentence explaining the judgement"`
}

// Verdicts is the classifier's response envelope.
type Verdicts struct {
	Classifications []Verdict `json:"classifications" jsonschema_description:"One entry per pending arc step"`
}

// ParseClassifications extracts step classifications from raw model output.
// Malformed output yields an empty map; unknown classifications are dropped.
func ParseClassifications(raw string) map[string]Classification {
	out := make(map[string]Classification)
	body := utils.ExtractJSON(raw)
	if body == "" {
		return out
	}

	var v Verdicts
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		log.Warn("arc classifier returned malformed json", "error", err, "raw", utils.LimitStr(raw, 200))
		return out
	}
	for _, vd := range v.Classifications {
		if vd.StepID == "" {
			continue
		}
		if c, ok := ParseClassification(vd.Classification); ok {
			out[vd.StepID] = c
		}
	}
	return out
}
