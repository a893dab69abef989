package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"driveindex/internal/afsource"
	"driveindex/internal/config"
	"driveindex/internal/drive"
	"driveindex/internal/extract"
	"driveindex/internal/handlers"
	"driveindex/internal/http"
	"driveindex/internal/indexer"
	"driveindex/internal/jobs"
	"driveindex/internal/llm"
	"driveindex/internal/source"
	"driveindex/internal/storage"
	"driveindex/internal/vectorstore"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "driver", cfg.DBDriver)

	src, err := newSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize crawl source: %v", err)
	}
	slog.Info("Crawl source ready", "source", cfg.CrawlSource, "page_size", cfg.DrivePageSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingVectorSize)
	if cfg.EmbeddingAPIKey == "" {
		slog.Warn("No embedding API key configured", "base_url", cfg.EmbeddingBaseURL)
	}

	checks := map[string]handlers.Pinger{"database": db}

	deps := indexer.Deps{
		States:    storage.NewStateRepo(db),
		Files:     storage.NewFileRepo(db),
		Chunks:    storage.NewChunkRepo(db),
		Source:    src,
		Extractor: extract.NewRegistry(cfg.MaxTextChars),
		Embedder:  embedder,
	}

	// The vector mirror is optional
	if cfg.QdrantURL != "" {
		vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = vectorStore.Close()
		}()

		if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingVectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize)

		deps.Mirror = vectorstore.NewMirror(vectorStore, cfg.QdrantCollection)
		checks["qdrant"] = vectorStore
	}

	engine := indexer.NewEngine(deps, indexer.Options{
		BatchFiles:    cfg.BatchFiles,
		MaxFileBytes:  cfg.MaxFileBytes,
		ChunkMaxChars: cfg.ChunkMaxChars,
		ChunkOverlap:  cfg.ChunkOverlap,
	})

	runner := jobs.NewRunner(engine)
	defer runner.Close()

	router := http.NewRouter(&http.Deps{
		Sync:   handlers.NewSyncHandler(engine, runner, cfg.SystemFolderID),
		Health: handlers.NewHealthHandler(checks),
		Logger: logger,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down API server")
		return server.Shutdown(shutdownCtx)
	})

	if len(cfg.Roots) > 0 {
		roots := make([]jobs.Root, len(cfg.Roots))
		for i, r := range cfg.Roots {
			roots[i] = jobs.Root{ID: r.ID, BatchFiles: r.BatchFiles}
		}
		scheduler := jobs.NewScheduler(runner, roots, cfg.Interval)
		g.Go(func() error {
			slog.Info("Starting crawl scheduler", "roots", len(roots), "interval", cfg.Interval)
			return scheduler.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		runner.Close()
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func newSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	if cfg.CrawlSource == config.SourceAFS {
		return afsource.New(cfg.DrivePageSize), nil
	}
	return drive.NewClient(ctx, cfg.GoogleCredentialsFile, cfg.DrivePageSize)
}
