package main

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"taleweaver/pkg/config"
	"taleweaver/pkg/imagegen"
	"taleweaver/pkg/inference"
	"taleweaver/pkg/names"
	"taleweaver/pkg/queue/gateway"
	"taleweaver/pkg/server"
	"taleweaver/pkg/store"
	"taleweaver/pkg/utils"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	charmlog.SetLevel(cfg.StructuredLevel())

	inf, err := newInferencer(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}

	srv := server.NewServer(ctx, inf, st)
	srv.Echo.Logger.SetLevel(cfg.EchoLevel())
	srv.ImageDir = cfg.ImageDir
	srv.HistoryBudget = cfg.HistoryTokenBudget

	if cfg.NamePoolsPath != "" {
		pools, err := utils.Load[names.Pools](cfg.NamePoolsPath)
		switch {
		case err == nil:
			srv.Names = names.New(pools)
			log.Infof("Loaded name pools from %s", cfg.NamePoolsPath)
		case errors.Is(err, os.ErrNotExist):
			log.Warnf("Name pools file %s not found, using defaults", cfg.NamePoolsPath)
		default:
			log.Warnf("Failed to load %s: %v", cfg.NamePoolsPath, err)
		}
	}

	if cfg.ImageKey != "" {
		gen := imagegen.New(cfg.ImageKey, cfg.ImageBaseURL, cfg.ImageModel, imagegen.Mode(cfg.ImageMode))
		q := gateway.New(gen, cfg.QueueSize, cfg.Workers)
		q.Start()
		srv.Queue = q
	} else {
		log.Warn("IMAGE_API_KEY not set, image generation disabled")
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error(err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
		done()
	}
	<-finishedShutDown
}

func newInferencer(ctx context.Context, cfg *config.Config) (inference.Inferencer, error) {
	if cfg.Provider == "gemini" {
		g, err := inference.NewGeminiInferencer(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		log.Infof("Using gemini inference with %s", cmp.Or(cfg.GeminiModel, "default model"))
		return g, nil
	}

	p, ok := inference.Providers[cfg.Provider]
	if !ok {
		log.Warnf("Unknown LLM_PROVIDER %q, using openai", cfg.Provider)
		p = inference.Providers["openai"]
	}
	if cfg.BaseURL != "" {
		p.BaseURL = cfg.BaseURL
	}
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		log.Warn("OPENAI_API_KEY not set, using local endpoint")
		p = inference.Providers["local"]
	}
	log.Infof("Using %s inference at %s", p.Name, p.BaseURL)
	return inference.NewOpenAIInferencer(p, cfg.APIKey, cfg.Model), nil
}
