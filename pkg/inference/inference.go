package inference

import (
	"context"

	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/schema"
)

// Inferencer defines an interface for running model inference and verification.
type Inferencer interface {
	// Infer runs a single system + user exchange.
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
	// Converse continues a multi-turn conversation after the system prompt.
	Converse(ctx context.Context, params *openai.ChatCompletionNewParams, system string, turns []schema.Turn) (string, error)
	// Edit mirrors Infer with rewrite-oriented defaults.
	Edit(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
	Verify(ctx context.Context, result string) (bool, error)
}

func wantsJSON(params *openai.ChatCompletionNewParams) bool {
	if params == nil {
		return false
	}
	f := params.ResponseFormat
	return f.OfJSONSchema != nil || f.OfJSONObject != nil
}
