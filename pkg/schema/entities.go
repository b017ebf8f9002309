package schema

// Scenario is the authored setup a roleplay session runs in.
type Scenario struct {
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title"`
	Premise     string      `json:"premise"`
	Setting     string      `json:"setting,omitempty"`
	Tone        string      `json:"tone,omitempty"`
	UserRole    string      `json:"user_role,omitempty"`
	Opening     string      `json:"opening,omitempty"`
	Rules       []string    `json:"rules,omitempty"`
	Characters  []Character `json:"characters,omitempty"`
	Flexibility string      `json:"flexibility,omitempty"`
}

// Character is a named participant in a scenario.
type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Personality string `json:"personality,omitempty"`
	Appearance  string `json:"appearance,omitempty"`
	Goals       string `json:"goals,omitempty"`
}

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Memory is a durable fact extracted from a conversation.
type Memory struct {
	Text       string `json:"text" jsonschema_description:"One self-contained fact worth remembering, written in the third person"`
	Importance string `json:"importance" jsonschema:"enum=low,enum=medium,enum=high" jsonschema_description:"How much the fact matters to future scenes"`
}

// Memories is the memory extraction envelope.
type Memories struct {
	Memories []Memory `json:"memories" jsonschema_description:"Facts established in the transcript"`
}

// ScenarioDraft is the AI-filled content for a new scenario.
type ScenarioDraft struct {
	Title      string           `json:"title" jsonschema_description:"Short evocative title"`
	Premise    string           `json:"premise" jsonschema_description:"Two or three sentences describing the situation"`
	Setting    string           `json:"setting" jsonschema_description:"Where and when the story takes place"`
	Tone       string           `json:"tone" jsonschema_description:"Genre and mood in a few words"`
	UserRole   string           `json:"user_role" jsonschema_description:"Who the user plays"`
	Opening    string           `json:"opening" jsonschema_description:"The first narrator message that starts the scene"`
	Characters []DraftCharacter `json:"characters" jsonschema_description:"Two to four supporting characters"`
	ArcSteps   []string         `json:"arc_steps" jsonschema_description:"Three to six narrative milestones in order"`
	Tags       []string         `json:"tags" jsonschema_description:"Up to five lowercase tags"`
}

type DraftCharacter struct {
	Name        string `json:"name" jsonschema_description:"Full character name"`
	Role        string `json:"role" jsonschema_description:"Role in the story"`
	Personality string `json:"personality" jsonschema_description:"Key personality traits"`
	Appearance  string `json:"appearance" jsonschema_description:"Brief physical description"`
}
