package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/browse"
	"streamflix/pkg/cache"
	"streamflix/pkg/catalog"
	"streamflix/pkg/config"
	"streamflix/pkg/env"
	"streamflix/pkg/logger"
	"streamflix/pkg/playback"
	"streamflix/pkg/selector"
	"streamflix/pkg/server"
	"streamflix/pkg/subtitles"
)

// controlsHideDelay is how long the player controls stay visible after the
// pointer leaves the surface.
const controlsHideDelay = 2 * time.Second

func main() {
	// Load environment variables for logger and bootstrap
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	logger.Init(env.LogLevel())

	logger.Info("Starting Streamflix", "version", "v0.1.0")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "err", err)
	}

	responseCache := cache.New(cfg.CacheTTL())
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogAPIKey, responseCache, cfg.RequestTimeout())
	aggClient := aggregator.NewClient(cfg.StreamBaseURL, cfg.StreamToken, cfg.RequestTimeout())
	subClient := subtitles.NewClient(cfg.SubsBaseURL, cfg.RequestTimeout())

	playbackManager := playback.NewManager(controlsHideDelay)
	subResolver := subtitles.NewResolver(subClient, playbackManager, cfg.SubtitleLanguage)
	browseService := browse.NewService(catalogClient, cfg.CategoryBatchSize)
	searcher := browse.NewSearcher(catalogClient, cfg.SearchDebounce())

	apiServer := server.NewServer(server.Deps{
		Config:     cfg,
		Catalog:    catalogClient,
		Aggregator: aggClient,
		Selector:   selector.NewService(cfg.Denylist, cfg.QualityPolicy, cfg.MaxCandidates),
		Playback:   playbackManager,
		Subtitles:  subResolver,
		SubClient:  subClient,
		Browse:     browseService,
		Searcher:   searcher,
	})

	// Warm the browse rows in the background; the priority rows land first.
	go browseService.LoadAll(context.Background())

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Listening", "addr", addr, "base_url", cfg.BaseURL)

	if err := http.ListenAndServe(addr, apiServer.Handler()); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
