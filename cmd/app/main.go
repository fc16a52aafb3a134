package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/pdfmerger/internal/config"
	"github.com/local/pdfmerger/internal/fetcher"
	logpkg "github.com/local/pdfmerger/internal/logger"
	"github.com/local/pdfmerger/internal/metrics"
	"github.com/local/pdfmerger/internal/normalizer"
	"github.com/local/pdfmerger/internal/pipeline"
	"github.com/local/pdfmerger/internal/storage"
	"github.com/local/pdfmerger/internal/store"
	"github.com/local/pdfmerger/internal/uploader"
	"github.com/local/pdfmerger/internal/web"
)

func main() {
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	ctx := context.Background()

	// Optional job status store
	var jobs *store.RedisJobs
	if cfg.Redis.URL != "" {
		var err error
		jobs, err = store.NewRedisJobs(cfg.Redis.URL, cfg.Redis.StatusTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init redis job store")
		}
		defer jobs.Close()
	}

	norm, err := normalizer.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init image normalizer")
	}
	fet := fetcher.New(fetcher.Config{
		ConnectTimeout: cfg.Fetch.ConnectTimeout,
		RequestTimeout: cfg.Fetch.RequestTimeout,
		MaxConns:       cfg.Fetch.MaxConns,
	})

	// One pipeline per environment, constructed up front and handed to
	// the handlers explicitly. Each gets its own log sink.
	stagingLog := logpkg.ForEnvironment(cfg.Logging.StagingFile)
	prodLog := logpkg.ForEnvironment(cfg.Logging.ProdFile)

	staging, err := buildPipeline(ctx, cfg, "staging", cfg.AWS.StagingBucket, fet, norm, jobs, &stagingLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init staging pipeline")
	}
	prod, err := buildPipeline(ctx, cfg, "prod", cfg.AWS.ProdBucket, fet, norm, jobs, &prodLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init prod pipeline")
	}

	mux := http.NewServeMux()
	var jobReader web.JobReader
	if jobs != nil {
		jobReader = jobs
	}
	srvApp := web.New(staging, prod, jobReader, cfg.Worker.JobTimeout)
	srvApp.RegisterRoutes(mux)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	fmt.Println("shutdown complete")
}

func buildPipeline(ctx context.Context, cfg cfgpkg.Config, env, bucket string, fet *fetcher.Fetcher, norm *normalizer.Normalizer, jobs *store.RedisJobs, logger *zerolog.Logger) (*pipeline.Pipeline, error) {
	s3cli, err := storage.NewS3Client(ctx, storage.Options{
		Region:          cfg.AWS.Region,
		Bucket:          bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	up := uploader.New(s3cli, uploader.RetryPolicy{
		MaxAttempts: cfg.Upload.MaxAttempts,
		BaseDelay:   cfg.Upload.RetryBaseDelay,
		Retryable:   uploader.IsRetryable,
	})

	var status pipeline.StatusStore
	if jobs != nil {
		status = jobs
	}

	log.Info().Str("environment", env).Str("bucket", bucket).Msg("pipeline initialized")
	return pipeline.New(pipeline.Dependencies{
		Environment: env,
		Fetcher:     fet,
		Normalizer:  norm,
		Uploader:    up,
		Status:      status,
		Concurrency: cfg.Worker.Concurrency,
		Logger:      logger,
	}), nil
}
