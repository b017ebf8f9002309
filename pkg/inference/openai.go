package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"taleweaver/pkg/schema"
)

// Provider describes an OpenAI-compatible chat endpoint.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
}

var Providers = map[string]Provider{
	"openai":   {Name: "openai", Model: "gpt-4o-mini"},
	"gateway":  {Name: "gateway", BaseURL: "https://ai.gateway.lovable.dev/v1", Model: "google/gemini-2.5-flash"},
	"grok":     {Name: "grok", BaseURL: "https://api.x.ai/v1", Model: "grok-4-fast-reasoning"},
	"moonshot": {Name: "moonshot", BaseURL: "https://api.moonshot.ai/v1", Model: "kimi-k2-5"},
	"local":    {Name: "local", BaseURL: "http://localhost:1234/v1"},
}

// OpenAIInferencer implements Inferencer using OpenAI's official Go SDK
// against any OpenAI-compatible endpoint.
type OpenAIInferencer struct {
	client *openai.Client
	name   string
	apiKey string
	model  string
}

// NewOpenAIInferencer creates an inferencer for p. Empty model falls back to
// the provider default.
func NewOpenAIInferencer(p Provider, apiKey, model string) *OpenAIInferencer {
	o := &OpenAIInferencer{name: cmp.Or(p.Name, "openai"), apiKey: apiKey, model: cmp.Or(model, p.Model)}
	o.ChangeBaseURL(p.BaseURL)
	return o
}

// ChangeBaseURL rebuilds the client for baseURL; empty keeps the SDK default.
func (o *OpenAIInferencer) ChangeBaseURL(baseURL string, opts ...option.RequestOption) {
	opts = append([]option.RequestOption{option.WithAPIKey(o.apiKey)}, opts...)
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	o.client = &client
}

// Infer sends text to the chat completion endpoint and returns the output.
func (o *OpenAIInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	return o.complete(ctx, params, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(user),
	})
}

// Converse sends the system prompt followed by every turn.
func (o *OpenAIInferencer) Converse(ctx context.Context, params *openai.ChatCompletionNewParams, system string, turns []schema.Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	msgs = append(msgs, openai.SystemMessage(system))
	for _, t := range turns {
		if t.Role == schema.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	return o.complete(ctx, params, msgs)
}

// Edit wraps Infer with editing defaults to encourage grounded rewrites.
func (o *OpenAIInferencer) Edit(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	p := openai.ChatCompletionNewParams{}
	if params != nil {
		p = *params
	}
	if p.MaxCompletionTokens.Value == 0 {
		p.MaxCompletionTokens = openai.Int(int64(max(len(user)*2, 1024)))
	}
	if p.Temperature.Value == 0 {
		p.Temperature = openai.Float(0.2)
	}
	return o.Infer(ctx, &p, system, user)
}

func (o *OpenAIInferencer) complete(ctx context.Context, params *openai.ChatCompletionNewParams, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	p := openai.ChatCompletionNewParams{}
	if params != nil {
		p = *params
	}
	p.Model = cmp.Or(p.Model, o.model)
	p.Messages = msgs
	p.MaxCompletionTokens = openai.Int(cmp.Or(p.MaxCompletionTokens.Value, 4096))
	p.Temperature = openai.Float(cmp.Or(p.Temperature.Value, 0.8))
	p.TopP = openai.Float(cmp.Or(p.TopP.Value, 1.0))

	resp, err := o.client.Chat.Completions.New(ctx, p)
	if err != nil {
		return "", fmt.Errorf("%s inference error: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion content")
	}

	return resp.Choices[0].Message.Content, nil
}

// Verify checks that the result is non-empty.
func (o *OpenAIInferencer) Verify(ctx context.Context, result string) (bool, error) {
	if result == "" {
		return false, errors.New("empty result")
	}
	return true, nil
}
