package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"taleweaver/pkg/flight"
	"taleweaver/pkg/inference"
	"taleweaver/pkg/names"
	"taleweaver/pkg/queue"
	"taleweaver/pkg/schema"
	"taleweaver/pkg/store"
	"taleweaver/pkg/utils"
)

type Server struct {
	Echo       *echo.Echo
	Inferencer inference.Inferencer
	Store      *store.Store
	Ctx        context.Context

	Names  *names.Normalizer
	Queue  queue.Queue
	Images *flight.Cache[string, *schema.ImageResult]

	ImageDir      string
	HistoryBudget int
	// Tokens counts prompt tokens for history trimming.
	Tokens func(string) int

	// conversations serializes read-modify-write of per-conversation state.
	conversations keyedMutex
}

func NewServer(ctx context.Context, inf inference.Inferencer, st *store.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:          e,
		Inferencer:    inf,
		Store:         st,
		Ctx:           ctx,
		Names:         names.New(names.DefaultPools()),
		Images:        flight.New[string, *schema.ImageResult](time.Hour),
		ImageDir:      "images",
		HistoryBudget: 6000,
		Tokens:        utils.CountTokens,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/images/:file", s.handleGetImage)

	api := s.Echo.Group("/api")
	api.POST("/chat", s.handlePostChat)                 // roleplay turn with placeholder normalization
	api.POST("/normalize", s.handlePostNormalize)       // placeholder normalization only
	api.POST("/arc/evaluate", s.handlePostArcEvaluate)  // classify + score arc steps
	api.POST("/arc/status", s.handlePostArcStatus)      // accept a suggested status change
	api.POST("/scenarios/generate", s.handlePostDraft)  // AI-filled scenario draft
	api.POST("/memories/extract", s.handlePostMemories) // SSE memory extraction
	api.POST("/rewrite", s.handlePostRewrite)           // message rewrite with word diff
	api.POST("/images", s.handlePostImage)              // image generation
	api.POST("/reviews", s.handlePostReview)
	api.GET("/scenarios/:id/reviews", s.handleGetReviews)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	if s.Queue != nil {
		s.Queue.Stop()
	}
	shutDownErr := s.Echo.Shutdown(ctx)
	storeErr := s.Store.Close()
	if shutDownErr != nil {
		return shutDownErr
	}
	return storeErr
}
