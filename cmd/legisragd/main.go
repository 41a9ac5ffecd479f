// Command legisragd runs the legisrag HTTP API: gin transport over the
// retrieval facade, backed by Postgres/pgvector and the embedding/reranker
// services.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"legisrag/config"
	"legisrag/embedclient"
	"legisrag/facade"
	"legisrag/httpapi"
	"legisrag/hydrate"
	"legisrag/rerank"
	"legisrag/search"
	"legisrag/store"
)

func main() {
	port := flag.String("port", "8080", "port to run the HTTP API on")
	flag.Parse()

	ctx := context.Background()

	logger, err := config.InitLogger()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()
	cfg := config.Load(logger)

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure database schema", zap.Error(err))
	}

	embedder, err := embedclient.New(cfg.EmbedderHost, cfg.EmbeddingModel,
		cfg.RequestTimeoutSeconds, cfg.MaxRetries, cfg.RetryDelaySeconds, cfg.EmbeddingCacheTTLSeconds, logger)
	if err != nil {
		logger.Fatal("failed to initialize embedding client", zap.Error(err))
	}

	reranker, err := rerank.New(cfg.RerankerHost, cfg.RequestTimeoutSeconds,
		cfg.MaxRetries, cfg.RetryDelaySeconds, cfg.RerankCacheTTLSeconds, cfg.MinRerankScore, logger)
	if err != nil {
		logger.Fatal("failed to initialize reranker client", zap.Error(err))
	}

	searchEngine, err := search.New(st, embedder, cfg.SearchCacheTTLSeconds,
		cfg.MaxSearchLimit, cfg.VectorWeight, cfg.KeywordWeight, logger)
	if err != nil {
		logger.Fatal("failed to initialize search engine", zap.Error(err))
	}

	hydrator := hydrate.New(st, cfg.MaxSectionsToHydrate, cfg.MaxMarkdownSize, cfg.TOCMinSections, cfg.TOCMaxEntries)

	f := facade.New(searchEngine, reranker, hydrator, st, cfg.MaxSearchLimit)

	server := httpapi.NewServer(f, logger)

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := ":" + *port
	logger.Info("legisrag HTTP API starting", zap.String("address", addr))
	if err := server.Start(runCtx, addr); err != nil {
		logger.Error("HTTP server error", zap.Error(err))
		os.Exit(1)
	}
}
