package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taleweaver/pkg/schema"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		url  string
	}{
		{
			"chat gateway",
			`{"choices":[{"message":{"content":"Here you go","images":[{"type":"image_url","image_url":{"url":"data:image/png;base64,AAAA"}}]}}]}`,
			"data:image/png;base64,AAAA",
		},
		{"images url", `{"data":[{"url":"https://cdn/x.png","revised_prompt":"a knight"}]}`, "https://cdn/x.png"},
		{"images b64", `{"data":[{"b64_json":"QUJD"}]}`, "data:image/png;base64,QUJD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.url, res.URL)
		})
	}
}

func TestExtractRevisedPrompt(t *testing.T) {
	res, err := Extract([]byte(`{"data":[{"url":"https://cdn/x.png","revised_prompt":"a knight"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a knight", res.RevisedPrompt)
}

func TestExtractNoImage(t *testing.T) {
	_, err := Extract([]byte(`{"choices":[{"message":{"content":"I can't draw that."}}]}`))
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = Extract([]byte(`{"error":{"message":"quota exceeded"}}`))
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = Extract([]byte(`not json`))
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestGenerateChatMode(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"images":[{"image_url":{"url":"https://cdn/knight.png"}}]}}]}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, "img-model", ModeChat)
	res, err := c.Generate(context.Background(), &schema.ImageRequest{Prompt: "a knight", Style: "ink"})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn/knight.png", res.URL)
	assert.Equal(t, "img-model", body["model"])
	assert.Equal(t, []any{"image", "text"}, body["modalities"])
}

func TestGenerateImagesMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"QUJD"}]}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, "", ModeImages)
	res, err := c.Generate(context.Background(), &schema.ImageRequest{Prompt: "castle", Kind: "cover"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QUJD", res.URL)
}

func TestDecodeDataURI(t *testing.T) {
	b, err := DecodeDataURI("data:image/png;base64,QUJD")
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), b)

	_, err = DecodeDataURI("https://cdn/x.png")
	assert.ErrorIs(t, err, ErrNotDataURI)
	_, err = DecodeDataURI("data:text/plain,hello")
	assert.ErrorIs(t, err, ErrNotDataURI)
}

func TestSaveWebP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	data, err := DecodeDataURI(uri)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "images")
	name, err := SaveWebP(dir, data)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, name))

	st, err := os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.NotZero(t, st.Size())

	_, err = SaveWebP(dir, []byte("nope"))
	assert.Error(t, err)
}
