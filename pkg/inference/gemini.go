package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"taleweaver/pkg/schema"
)

type GeminiInferencer struct {
	client *genai.Client
	model  string
}

// NewGeminiInferencer creates a new inferencer backed by the Gemini API.
func NewGeminiInferencer(ctx context.Context, apiKey string, model string) (*GeminiInferencer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiInferencer{
		client: client,
		model:  cmp.Or(model, "gemini-2.5-flash"),
	}, nil
}

func (g *GeminiInferencer) config(params *openai.ChatCompletionNewParams, system string) (*genai.GenerateContentConfig, string) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   int32(cmp.Or(params.MaxCompletionTokens.Value, 4096)),
	}
	if params.Temperature.Value != 0 {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}
	if wantsJSON(params) {
		config.ResponseMIMEType = "application/json"
	}
	return config, cmp.Or(params.Model, g.model)
}

// Infer runs one system + user exchange.
func (g *GeminiInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	return g.Converse(ctx, params, system, []schema.Turn{{Role: schema.RoleUser, Content: user}})
}

// Converse maps turns onto Gemini user/model contents.
func (g *GeminiInferencer) Converse(ctx context.Context, params *openai.ChatCompletionNewParams, system string, turns []schema.Turn) (string, error) {
	config, model := g.config(params, system)

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == schema.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("empty completion content")
	}
	return text, nil
}

// Edit mirrors Infer but allows the caller to provide editing-specific defaults.
func (g *GeminiInferencer) Edit(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	p := openai.ChatCompletionNewParams{}
	if params != nil {
		p = *params
	}
	if p.MaxCompletionTokens.Value == 0 {
		p.MaxCompletionTokens = openai.Int(int64(max(len(user)*2, 1024)))
	}
	return g.Infer(ctx, &p, system, user)
}

// Verify checks that the result is non-empty.
func (g *GeminiInferencer) Verify(ctx context.Context, result string) (bool, error) {
	if result == "" {
		return false, errors.New("empty result")
	}
	return true, nil
}
