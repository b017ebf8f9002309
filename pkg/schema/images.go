package schema

import (
	"encoding/json"
	"errors"
)

// ImageRequest asks the image provider for a single picture.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
	Kind   string `json:"kind,omitempty"` // avatar, cover, scene
	Model  string `json:"model,omitempty"`
}

// Key identifies requests that would produce the same image.
func (r ImageRequest) Key() string {
	return r.Kind + "\x00" + r.Model + "\x00" + r.Style + "\x00" + r.Prompt
}

// FullPrompt joins the prompt with its style hint.
func (r ImageRequest) FullPrompt() string {
	if r.Style == "" {
		return r.Prompt
	}
	return r.Prompt + "\nStyle: " + r.Style
}

// ImageResult is what the provider returned. URL is either a remote URL or a
// data URI; Path is set once the image has been stored locally.
type ImageResult struct {
	URL           string `json:"url,omitzero"`
	Path          string `json:"path,omitzero"`
	RevisedPrompt string `json:"revised_prompt,omitzero"`

	Error error `json:"-"`
}

type imageResultAlias struct {
	URL           string `json:"url,omitzero"`
	Path          string `json:"path,omitzero"`
	RevisedPrompt string `json:"revised_prompt,omitzero"`
	Error         string `json:"error,omitzero"`
}

func (r *ImageResult) MarshalJSON() ([]byte, error) {
	a := imageResultAlias{URL: r.URL, Path: r.Path, RevisedPrompt: r.RevisedPrompt}
	if r.Error != nil {
		a.Error = r.Error.Error()
	}
	return json.Marshal(a)
}

func (r *ImageResult) UnmarshalJSON(data []byte) error {
	var a imageResultAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	r.URL, r.Path, r.RevisedPrompt = a.URL, a.Path, a.RevisedPrompt
	r.Error = nil
	if a.Error != "" {
		r.Error = errors.New(a.Error)
	}
	return nil
}
