// Package imagegen talks to image-generation providers and pulls the image
// out of their nested responses.
package imagegen

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"

	"taleweaver/pkg/schema"
)

var ErrNoImage = errors.New("no image in provider response")

// Mode selects the provider endpoint shape.
type Mode string

const (
	// ModeChat asks a chat-completions gateway for image output.
	ModeChat Mode = "chat"
	// ModeImages uses the images/generations endpoint.
	ModeImages Mode = "images"
)

type Client struct {
	client *openai.Client
	model  string
	mode   Mode
}

// New creates a client for baseURL. Empty baseURL uses the OpenAI default.
func New(apiKey, baseURL, model string, mode Mode) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: model, mode: cmp.Or(mode, ModeChat)}
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type imagesRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

// Generate asks the provider for one image and extracts it from the response.
func (c *Client) Generate(ctx context.Context, req *schema.ImageRequest) (*schema.ImageResult, error) {
	model := cmp.Or(req.Model, c.model)

	var (
		path string
		body any
	)
	switch c.mode {
	case ModeImages:
		path = "images/generations"
		body = imagesRequest{Model: model, Prompt: req.FullPrompt(), N: 1, Size: sizeFor(req.Kind)}
	default:
		path = "chat/completions"
		body = chatRequest{
			Model:      model,
			Messages:   []chatMessage{{Role: "user", Content: req.FullPrompt()}},
			Modalities: []string{"image", "text"},
		}
	}

	var raw json.RawMessage
	if err := c.client.Post(ctx, path, body, &raw); err != nil {
		return nil, fmt.Errorf("image provider: %w", err)
	}
	return Extract(raw)
}

func sizeFor(kind string) string {
	switch kind {
	case "cover":
		return "1536x1024"
	case "avatar":
		return "1024x1024"
	}
	return ""
}

var urlPaths = []string{
	"choices.0.message.images.0.image_url.url",
	"choices.0.message.images.0.url",
	"data.0.url",
	"output.0.url",
	"url",
}

// Extract finds the image in a provider response. Both chat-style
// (choices[].message.images[].image_url.url) and images-style (data[].url,
// data[].b64_json) payloads are understood.
func Extract(raw []byte) (*schema.ImageResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrNoImage)
	}
	res := &schema.ImageResult{
		RevisedPrompt: cmp.Or(
			gjson.GetBytes(raw, "data.0.revised_prompt").String(),
			gjson.GetBytes(raw, "choices.0.message.content").String(),
		),
	}
	for _, p := range urlPaths {
		if v := gjson.GetBytes(raw, p); v.Type == gjson.String && v.String() != "" {
			res.URL = v.String()
			return res, nil
		}
	}
	if b64 := gjson.GetBytes(raw, "data.0.b64_json").String(); b64 != "" {
		res.URL = "data:image/png;base64," + b64
		return res, nil
	}
	if msg := gjson.GetBytes(raw, "error.message").String(); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, msg)
	}
	return nil, ErrNoImage
}
