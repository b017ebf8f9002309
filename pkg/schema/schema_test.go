package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationSchemaIsStrictObject(t *testing.T) {
	b, err := json.Marshal(ClassificationSchema)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Contains(t, string(b), "soft_resistance")

	f := ClassificationResponseFormat()
	require.NotNil(t, f.OfJSONSchema)
	assert.Equal(t, "arc_classification", f.OfJSONSchema.JSONSchema.Name)
}

// Strict structured outputs reject objects whose required list misses a
// property, at any depth.
func TestSchemasRequireEveryProperty(t *testing.T) {
	for name, s := range map[string]any{
		"classification": ClassificationSchema,
		"scenario_draft": ScenarioDraftSchema,
		"memories":       MemoriesSchema,
	} {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(s)
			require.NoError(t, err)
			var doc map[string]any
			require.NoError(t, json.Unmarshal(b, &doc))
			assertRequiresAll(t, "$", doc)
		})
	}
}

func assertRequiresAll(t *testing.T, path string, node map[string]any) {
	t.Helper()
	if props, ok := node["properties"].(map[string]any); ok {
		var required []string
		if list, ok := node["required"].([]any); ok {
			for _, r := range list {
				required = append(required, r.(string))
			}
		}
		for key, child := range props {
			assert.Contains(t, required, key, "%s.%s missing from required", path, key)
			if m, ok := child.(map[string]any); ok {
				assertRequiresAll(t, path+"."+key, m)
			}
		}
		assert.Equal(t, false, node["additionalProperties"], "%s allows additional properties", path)
	}
	if items, ok := node["items"].(map[string]any); ok {
		assertRequiresAll(t, path+"[]", items)
	}
}

func TestImageResultErrorRoundTrip(t *testing.T) {
	in := &ImageResult{URL: "https://img/1.png", Error: errors.New("quota")}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://img/1.png","error":"quota"}`, string(b))

	var out ImageResult
	require.NoError(t, json.Unmarshal(b, &out))
	assert.EqualError(t, out.Error, "quota")
}

func TestImageRequestKey(t *testing.T) {
	a := ImageRequest{Prompt: "a knight", Style: "oil"}
	b := ImageRequest{Prompt: "a knight", Style: "ink"}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "a knight\nStyle: oil", a.FullPrompt())
	assert.Equal(t, "a knight", ImageRequest{Prompt: "a knight"}.FullPrompt())
}
