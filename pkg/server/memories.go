package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"taleweaver/pkg/schema"
	"taleweaver/pkg/utils"
)

type memoriesReq struct {
	ConversationID string        `json:"conversation_id"`
	Transcript     []schema.Turn `json:"transcript"`
	Known          []string      `json:"known,omitempty"`
}

type memoriesProgress struct {
	Chunk    int      `json:"chunk"`
	Chunks   int      `json:"chunks"`
	Memories []string `json:"memories"`
}

const (
	memoryChunkRunes = 6000
	memorySimilarity = 0.85
)

// POST /api/memories/extract
//
// Streams one "data" event per transcript chunk with the merged memories so
// far, "error" events for chunks that failed, and a final "done" event.
func (s *Server) handlePostMemories(c echo.Context) error {
	var req memoriesReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if len(req.Transcript) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "transcript is required")
	}

	var b strings.Builder
	for _, t := range req.Transcript {
		fmt.Fprintf(&b, "%s: %s\n\n", t.Role, strings.TrimSpace(t.Content))
	}
	chunks := utils.ChunkText(b.String(), memoryChunkRunes)

	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		if errors.Is(err, utils.ErrNoFlush) {
			return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
		}
		return err
	}
	defer sse.Close()

	ctx := c.Request().Context()
	known := utils.DedupeStrings(req.Known)
	var found []string
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			log.Debug("memory extraction cancelled", "conversation", req.ConversationID, "chunk", i)
			return nil
		}
		params := &openai.ChatCompletionNewParams{
			MaxCompletionTokens: openai.Int(1024),
			Temperature:         openai.Float(0.2),
			ResponseFormat:      schema.MemoriesResponseFormat(),
		}
		raw, err := s.Inferencer.Infer(ctx, params, buildMemoriesPrompt(known, found), chunk)
		if err != nil {
			log.Warn("memory extraction chunk failed", "conversation", req.ConversationID, "chunk", i, "error", err)
			_ = sse.Event("error", utils.ErrJSON(fmt.Sprintf("chunk %d failed", i+1)))
			continue
		}
		var m schema.Memories
		if !utils.DecodeJSON(raw, &m) {
			log.Warn("memory extraction returned malformed json", "chunk", i, "raw", utils.LimitStr(raw, 200))
		}
		texts := make([]string, 0, len(m.Memories))
		for _, mem := range m.Memories {
			texts = append(texts, mem.Text)
		}
		found = utils.MergeSimilar(found, texts, memorySimilarity)

		if err := sse.Event("data", memoriesProgress{Chunk: i + 1, Chunks: len(chunks), Memories: nonNil(found)}); err != nil {
			return nil
		}
	}

	log.Info("memories extracted", "conversation", req.ConversationID, "chunks", len(chunks), "memories", len(found))
	_ = sse.Event("done", map[string]any{"memories": nonNil(found)})
	return nil
}

func buildMemoriesPrompt(known, found []string) string {
	all := append(append([]string{}, known...), found...)
	if len(all) == 0 {
		return memoriesPrompt
	}
	var b strings.Builder
	b.WriteString(memoriesPrompt)
	b.WriteString("\n\nAlready known:\n")
	for _, m := range all {
		b.WriteString("- ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	return b.String()
}
