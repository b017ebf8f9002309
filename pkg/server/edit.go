package server

import (
	"cmp"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/utils"
)

type rewriteReq struct {
	Message     string `json:"message"`
	Instruction string `json:"instruction"`
	Rules       string `json:"rules,omitempty"`
}

type rewriteResp struct {
	Result string            `json:"result"`
	Diff   []utils.WordDelta `json:"diff"`
}

const maxRewriteRunes = 8192 * 4

// POST /api/rewrite
func (s *Server) handlePostRewrite(c echo.Context) error {
	var req rewriteReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/rewrite", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.Instruction) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message and instruction are required")
	}
	req.Message = utils.LimitStr(req.Message, maxRewriteRunes)

	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(int64(cmp.Or(len(req.Message)*2, 4096))),
		Temperature:         openai.Float(0.25),
		TopP:                openai.Float(1.0),
	}
	ctx := c.Request().Context()
	result, err := s.Inferencer.Edit(ctx, params, buildRewritePrompt(req.Rules, req.Instruction), req.Message)
	if err != nil {
		log.Error("rewrite inference failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "rewrite inference failed")
	}
	result = strings.TrimSpace(utils.StripThinking(result))
	if ok, err := s.Inferencer.Verify(ctx, result); !ok {
		log.Warn("rewrite result rejected", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "empty rewrite result")
	}

	diff := utils.DiffWords(req.Message, result)
	log.Info("rewrite complete", "runes", len([]rune(result)), "deltas", len(diff))

	return c.JSON(http.StatusOK, rewriteResp{Result: result, Diff: nonNil(diff)})
}
