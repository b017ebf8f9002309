package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/names"
	"taleweaver/pkg/schema"
	"taleweaver/pkg/utils"
)

type chatReq struct {
	ConversationID string          `json:"conversation_id"`
	Scenario       schema.Scenario `json:"scenario"`
	History        []schema.Turn   `json:"history"`
	Message        string          `json:"message"`
	UsedNames      []string        `json:"used_names,omitempty"`
}

type chatResp struct {
	Reply         string   `json:"reply"`
	NewCharacters []string `json:"new_characters"`
}

type normalizeReq struct {
	ConversationID string   `json:"conversation_id"`
	Text           string   `json:"text"`
	UsedNames      []string `json:"used_names,omitempty"`
}

// POST /api/chat
func (s *Server) handlePostChat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.ConversationID == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id and message are required")
	}

	turns := append(req.History, schema.Turn{Role: schema.RoleUser, Content: req.Message})
	turns = utils.TrimToBudget(turns, s.HistoryBudget, func(t schema.Turn) string { return t.Content }, s.Tokens)

	ctx := c.Request().Context()
	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(1024),
		Temperature:         openai.Float(0.9),
	}
	reply, err := s.Inferencer.Converse(ctx, params, buildNarratorPrompt(req.Scenario), turns)
	if err != nil {
		log.Error("chat inference failed", "conversation", req.ConversationID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "chat inference failed")
	}
	reply = strings.TrimSpace(utils.StripThinking(reply))
	if ok, err := s.Inferencer.Verify(ctx, reply); !ok {
		log.Warn("chat reply rejected", "conversation", req.ConversationID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "empty chat result")
	}

	used := req.UsedNames
	for _, ch := range req.Scenario.Characters {
		used = append(used, ch.Name)
	}
	res, err := s.normalize(c, req.ConversationID, reply, used)
	if err != nil {
		return err
	}

	log.Info("chat turn complete", "conversation", req.ConversationID, "history", len(turns), "new_characters", len(res.Added))

	return c.JSON(http.StatusOK, chatResp{Reply: res.Text, NewCharacters: nonNil(res.Added)})
}

// POST /api/normalize
func (s *Server) handlePostNormalize(c echo.Context) error {
	var req normalizeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id is required")
	}
	res, err := s.normalize(c, req.ConversationID, req.Text, req.UsedNames)
	if err != nil {
		return err
	}
	res.Added = nonNil(res.Added)
	return c.JSON(http.StatusOK, res)
}

// normalize runs the placeholder normalizer with the conversation's stored
// mapping and persists any new assignments. Calls for one conversation run
// one at a time so every reply agrees with the stored mapping.
func (s *Server) normalize(c echo.Context, conversationID, text string, used []string) (names.Result, error) {
	unlock := s.conversations.Lock(conversationID)
	defer unlock()

	ctx := c.Request().Context()
	mapping, err := s.Store.Mapping(ctx, conversationID)
	if err != nil {
		log.Error("loading name mapping failed", "conversation", conversationID, "error", err)
		return names.Result{}, echo.NewHTTPError(http.StatusInternalServerError, "failed loading conversation names")
	}

	res := s.Names.Normalize(text, used, mapping)
	if len(res.Added) > 0 {
		if err := s.Store.SaveMapping(ctx, conversationID, mapping); err != nil {
			log.Error("saving name mapping failed", "conversation", conversationID, "error", err)
			return names.Result{}, echo.NewHTTPError(http.StatusInternalServerError, "failed saving conversation names")
		}
		log.Debug("minted placeholder names", "conversation", conversationID, "names", res.Added)
	}
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
