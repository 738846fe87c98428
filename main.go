package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cppla/bloghub/config"
	"github.com/cppla/bloghub/models"
	"github.com/cppla/bloghub/routes"
	"github.com/cppla/bloghub/utils"
)

const mediaCleanInterval = 30 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopTracer, err := utils.InitTracer(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("init tracer: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			utils.Sugar.Warnf("sentry init failed: %v", err)
		}
	}

	db, err := config.InitDatabase(cfg, models.All()...)
	if err != nil {
		utils.Sugar.Fatalf("init database: %v", err)
	}

	pages := utils.NewPageStore(cfg)
	media := utils.NewMediaStorage(cfg.MediaRoot, cfg.MediaURL, cfg.UploadMaxMB)

	// Remove images no post references any more (best-effort)
	utils.StartMediaCleaner(ctx, db, media, mediaCleanInterval)

	r := routes.SetupRouter(db, pages, media)

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DEFAULT_READ_TIMEOUT, utils.DEFAULT_WRITE_TIMEOUT)
	srv.OnShutdown(func(context.Context) { cancel() })
	srv.OnShutdown(stopTracer)
	srv.OnShutdown(func(context.Context) { sentry.Flush(2 * time.Second) })

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
