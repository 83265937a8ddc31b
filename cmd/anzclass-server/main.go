// Command anzclass-server runs the ANZSIC classification HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/api"
	"github.com/anzclass/anzclass/internal/config"
	"github.com/anzclass/anzclass/internal/db"
	"github.com/anzclass/anzclass/internal/db/migrations"
	"github.com/anzclass/anzclass/internal/dbpool"
	"github.com/anzclass/anzclass/internal/embed"
	"github.com/anzclass/anzclass/internal/gcp"
	"github.com/anzclass/anzclass/internal/llm"
	"github.com/anzclass/anzclass/internal/rerank"
	"github.com/anzclass/anzclass/internal/retrieval"
	"github.com/anzclass/anzclass/internal/service"
	"github.com/anzclass/anzclass/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	if err := db.VerifyVectorDimensions(ctx, pool, log, cfg.EmbedDim); err != nil {
		return err
	}

	tokens, err := gcp.NewTokenManager(ctx)
	if err != nil {
		return err
	}

	embedder := embed.New(embed.Config{
		Project:    cfg.GCPProject,
		Location:   cfg.GCPLocation,
		Model:      cfg.EmbedModel,
		Dimensions: cfg.EmbedDim,
		BatchSize:  cfg.EmbedBatchSize,
		Retries:    cfg.EmbedRetries,
	}, tokens, log)

	generator := llm.New(llm.Config{
		Project:  cfg.GCPProject,
		Location: cfg.GCPLocation,
		Model:    cfg.LLMModel,
		Retries:  cfg.LLMRetries,
	}, tokens, log)

	catalogue := store.NewCatalogueStore(store.Base{Pool: pool, Log: log})

	retriever := retrieval.New(embedder, catalogue, retrieval.Options{
		RRFK:   cfg.RRFK,
		Strict: cfg.StrictRetrieval,
	}, log)

	reranker := rerank.New(generator, catalogue, log)
	classifier := service.NewClassifier(retriever, reranker, embedder, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Classifier:  classifier,
		Catalogue:   catalogue,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
		EmbedModel:  embedder.ModelName(),
		EmbedDim:    embedder.Dimensions(),
		LLMModel:    generator.ModelName(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr()).Info("listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}
