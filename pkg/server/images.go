package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"taleweaver/pkg/imagegen"
	"taleweaver/pkg/queue"
	"taleweaver/pkg/schema"
)

const maxImagePromptRunes = 4000

// POST /api/images
//
// Identical concurrent requests share one generation. Inline results are
// stored as WebP and returned as a /images path.
func (s *Server) handlePostImage(c echo.Context) error {
	var req schema.ImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}
	if len([]rune(req.Prompt)) > maxImagePromptRunes {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt too long")
	}
	if s.Queue == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "image generation is not configured")
	}

	// Generation outlives any single caller since others may be waiting on it.
	res, shared, err := s.Images.Do(req.Key(), func() (*schema.ImageResult, error) {
		return s.generateImage(s.Ctx, &req)
	})
	switch {
	case errors.Is(err, queue.ErrFull):
		return echo.NewHTTPError(http.StatusTooManyRequests, "image queue is full")
	case errors.Is(err, queue.ErrStopped):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "image queue is stopped")
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server is shutting down")
	case err != nil:
		log.Error("image generation failed", "kind", req.Kind, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "image generation failed")
	}

	log.Info("image ready", "kind", req.Kind, "shared", shared, "path", res.Path)
	return c.JSON(http.StatusOK, res)
}

func (s *Server) generateImage(ctx context.Context, req *schema.ImageRequest) (*schema.ImageResult, error) {
	resp, errs, err := s.Queue.Add(ctx, req)
	if err != nil {
		return nil, err
	}

	// The queue closes whichever channel it does not send on.
	var res *schema.ImageResult
	select {
	case r, ok := <-resp:
		if !ok {
			return nil, <-errs
		}
		res = r
	case err, ok := <-errs:
		if ok {
			return nil, err
		}
		res = <-resp
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res == nil {
		return nil, imagegen.ErrNoImage
	}
	if res.Error != nil {
		return nil, res.Error
	}

	if strings.HasPrefix(res.URL, "data:") {
		data, err := imagegen.DecodeDataURI(res.URL)
		if err != nil {
			return nil, err
		}
		name, err := imagegen.SaveWebP(s.ImageDir, data)
		if err != nil {
			return nil, err
		}
		// Drop the inline payload once it is on disk.
		return &schema.ImageResult{Path: "/images/" + name, RevisedPrompt: res.RevisedPrompt}, nil
	}
	return res, nil
}
