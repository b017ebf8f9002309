package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/schema"
	"taleweaver/pkg/utils"
)

type draftReq struct {
	Idea  string `json:"idea"`
	Genre string `json:"genre,omitempty"`
	Tone  string `json:"tone,omitempty"`
}

const maxDraftTags = 5

// POST /api/scenarios/generate
func (s *Server) handlePostDraft(c echo.Context) error {
	var req draftReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Idea = strings.TrimSpace(req.Idea)
	if req.Idea == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "idea is required")
	}

	var user strings.Builder
	user.WriteString("Idea: ")
	user.WriteString(utils.LimitStr(req.Idea, 2000))
	if req.Genre != "" {
		user.WriteString("\nGenre: " + req.Genre)
	}
	if req.Tone != "" {
		user.WriteString("\nTone: " + req.Tone)
	}

	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(2048),
		Temperature:         openai.Float(0.9),
		ResponseFormat:      schema.ScenarioDraftResponseFormat(),
	}
	raw, err := s.Inferencer.Infer(c.Request().Context(), params, draftPrompt, user.String())
	if err != nil {
		log.Error("scenario draft failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "scenario generation failed")
	}

	var draft schema.ScenarioDraft
	if !utils.DecodeJSON(raw, &draft) {
		log.Warn("scenario draft was not valid json", "raw", utils.LimitStr(raw, 200))
		draft = schema.ScenarioDraft{}
	}
	draft.Tags = utils.DedupeStrings(draft.Tags)
	for i, t := range draft.Tags {
		draft.Tags[i] = strings.ToLower(t)
	}
	if len(draft.Tags) > maxDraftTags {
		draft.Tags = draft.Tags[:maxDraftTags]
	}
	draft.Characters = nonNil(draft.Characters)
	draft.ArcSteps = nonNil(draft.ArcSteps)
	draft.Tags = nonNil(draft.Tags)

	return c.JSON(http.StatusOK, draft)
}
