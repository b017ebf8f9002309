package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/arc"
	"taleweaver/pkg/schema"
	"taleweaver/pkg/store"
)

type arcEvaluateReq struct {
	ConversationID string        `json:"conversation_id"`
	Steps          []arc.Step    `json:"steps,omitempty"`
	Flexibility    string        `json:"flexibility,omitempty"`
	Message        string        `json:"message"`
	Recent         []schema.Turn `json:"recent,omitempty"`
}

type arcEvaluateResp struct {
	Updates []arc.Update `json:"updates"`
	Steps   []arc.Step   `json:"steps"`
}

type arcStatusReq struct {
	ConversationID string     `json:"conversation_id"`
	StepID         string     `json:"step_id"`
	Status         arc.Status `json:"status"`
}

const maxRecentTurns = 6

// POST /api/arc/evaluate
func (s *Server) handlePostArcEvaluate(c echo.Context) error {
	var req arcEvaluateReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.ConversationID == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id and message are required")
	}

	// Scores accumulate, so evaluations of one conversation must not interleave.
	unlock := s.conversations.Lock(req.ConversationID)
	defer unlock()

	ctx := c.Request().Context()
	stored, err := s.Store.Steps(ctx, req.ConversationID)
	if err != nil {
		log.Error("loading arc steps failed", "conversation", req.ConversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed loading arc steps")
	}
	steps := mergeSteps(stored, req.Steps)

	var pending []arc.Step
	for _, st := range steps {
		if st.Status == "" || st.Status == arc.Pending {
			pending = append(pending, st)
		}
	}
	if len(pending) == 0 {
		return c.JSON(http.StatusOK, arcEvaluateResp{Updates: []arc.Update{}, Steps: nonNil(steps)})
	}

	recent := req.Recent
	if len(recent) > maxRecentTurns {
		recent = recent[len(recent)-maxRecentTurns:]
	}
	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(1024),
		Temperature:         openai.Float(0.1),
		ResponseFormat:      schema.ClassificationResponseFormat(),
	}
	raw, err := s.Inferencer.Infer(ctx, params, classifyPrompt, buildClassifyInput(pending, recent, req.Message))
	if err != nil {
		log.Error("arc classification failed", "conversation", req.ConversationID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "arc classification failed")
	}

	classes := arc.ParseClassifications(raw)
	updates := arc.Apply(steps, classes, arc.ParseFlexibility(req.Flexibility))
	if err := s.Store.SaveSteps(ctx, req.ConversationID, steps); err != nil {
		log.Error("saving arc steps failed", "conversation", req.ConversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed saving arc steps")
	}

	log.Info("arc evaluated", "conversation", req.ConversationID, "pending", len(pending), "updates", len(updates))

	return c.JSON(http.StatusOK, arcEvaluateResp{Updates: nonNil(updates), Steps: steps})
}

// POST /api/arc/status
func (s *Server) handlePostArcStatus(c echo.Context) error {
	var req arcStatusReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.ConversationID == "" || req.StepID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id and step_id are required")
	}
	switch req.Status {
	case arc.Pending, arc.Succeeded, arc.Failed, arc.Deviated:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	err := s.Store.SetStepStatus(c.Request().Context(), req.ConversationID, req.StepID, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "step not found")
	}
	if err != nil {
		log.Error("updating arc step failed", "conversation", req.ConversationID, "step", req.StepID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed updating step")
	}
	return c.NoContent(http.StatusNoContent)
}

// mergeSteps overlays the request's steps on the stored ones. Stored scores
// and statuses win; descriptions and order come from the request when given.
// A request naming steps replaces the stored set. Scores of steps first seen
// in the request are clamped to the arc range.
func mergeSteps(stored, req []arc.Step) []arc.Step {
	if len(req) == 0 {
		return stored
	}
	byID := make(map[string]arc.Step, len(stored))
	for _, st := range stored {
		byID[st.ID] = st
	}
	out := make([]arc.Step, 0, len(req))
	for _, st := range req {
		if st.ID == "" {
			continue
		}
		if prev, ok := byID[st.ID]; ok {
			st.Score, st.Status = prev.Score, prev.Status
			if st.Description == "" {
				st.Description = prev.Description
			}
		} else {
			st.Score = min(max(st.Score, arc.MinScore), arc.MaxScore)
		}
		if st.Status == "" {
			st.Status = arc.Pending
		}
		out = append(out, st)
	}
	return out
}
