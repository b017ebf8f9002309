package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/arc"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var (
	ClassificationSchema = generateSchema[arc.Verdicts]()
	ScenarioDraftSchema  = generateSchema[ScenarioDraft]()
	MemoriesSchema       = generateSchema[Memories]()
)

func responseFormat(name, description string, schema any) openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}

func ClassificationResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("arc_classification", "Classification of the user's action against each pending story arc step", ClassificationSchema)
}

func ScenarioDraftResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("scenario_draft", "A complete roleplay scenario drafted from a short idea", ScenarioDraftSchema)
}

func MemoriesResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("memories", "Durable facts extracted from a roleplay transcript", MemoriesSchema)
}
