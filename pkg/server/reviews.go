package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"taleweaver/pkg/review"
	"taleweaver/pkg/store"
	"taleweaver/pkg/utils"
)

type reviewReq struct {
	ScenarioID string         `json:"scenario_id"`
	UserID     string         `json:"user_id"`
	Ratings    review.Ratings `json:"ratings"`
	Comment    string         `json:"comment,omitempty"`
}

type reviewsResp struct {
	Reviews []store.Review `json:"reviews"`
	Summary review.Summary `json:"summary"`
}

const maxCommentRunes = 2000

// POST /api/reviews
func (s *Server) handlePostReview(c echo.Context) error {
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.ScenarioID = strings.TrimSpace(req.ScenarioID)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.ScenarioID == "" || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "scenario_id and user_id are required")
	}
	if err := req.Ratings.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r := &store.Review{
		ID:         ksuid.New().String(),
		ScenarioID: req.ScenarioID,
		UserID:     req.UserID,
		Ratings:    req.Ratings,
		Display:    review.Display(req.Ratings),
		Comment:    strings.TrimSpace(utils.LimitStr(req.Comment, maxCommentRunes)),
	}
	if r.Ratings == nil {
		r.Ratings = review.Ratings{}
	}
	if w, ok := review.Weighted(req.Ratings); ok {
		r.Weighted = &w
	}
	if err := s.Store.PutReview(c.Request().Context(), r); err != nil {
		log.Error("saving review failed", "scenario", req.ScenarioID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed saving review")
	}

	log.Info("review saved", "scenario", r.ScenarioID, "user", r.UserID, "categories", len(r.Ratings.Known()))
	return c.JSON(http.StatusOK, r)
}

// GET /api/scenarios/:id/reviews
func (s *Server) handleGetReviews(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "scenario id is required")
	}
	reviews, err := s.Store.Reviews(c.Request().Context(), id)
	if err != nil {
		log.Error("listing reviews failed", "scenario", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed listing reviews")
	}

	ratings := make([]review.Ratings, len(reviews))
	for i, r := range reviews {
		ratings[i] = r.Ratings
	}
	return c.JSON(http.StatusOK, reviewsResp{Reviews: nonNil(reviews), Summary: review.Summarize(ratings)})
}
