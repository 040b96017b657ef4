// cmd/collect/main.go

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"sentiscan/internal/adapter/notify"
	"sentiscan/internal/adapter/reddit"
	"sentiscan/internal/adapter/source"
	"sentiscan/internal/adapter/twitter"
	"sentiscan/internal/config"
	"sentiscan/internal/domain/mention"
	"sentiscan/internal/logger"
	"sentiscan/internal/server"
	"sentiscan/internal/service/listening"
	"sentiscan/internal/service/report"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	slog.SetDefault(logg)

	// Cancelled on interrupt; partial results are still reported
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	logg = logg.With("run_id", runID)

	// Initialize sources
	router := source.NewRouter("reddit")
	router.Register("reddit", reddit.NewClient(reddit.Config{
		BaseURL:      cfg.Reddit.BaseURL,
		UserAgent:    cfg.Reddit.UserAgent,
		Timeout:      cfg.Reddit.Timeout,
		CommentLimit: cfg.Reddit.CommentLimit,
		Logger:       logg,
	}))

	if cfg.Twitter.BearerToken != "" {
		twitterClient, err := twitter.NewClient(twitter.Config{
			BearerToken: cfg.Twitter.BearerToken,
			BaseURL:     cfg.Twitter.BaseURL,
			Timeout:     cfg.Twitter.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Twitter client: %v", err)
		}
		router.Register("twitter", twitterClient)
	}

	classifier, err := listening.NewClassifier(cfg.Topic.Anchor, cfg.Topic.TopicalTerms)
	if err != nil {
		log.Fatalf("Failed to initialize classifier: %v", err)
	}
	if classifier.Degenerate() {
		logg.Warn("no topical terms configured, every item will be rejected")
	}

	var publisher *notify.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err := notify.Connect(notify.Config{
			URL:            cfg.NATS.URL,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectTimeout: cfg.NATS.ConnectTimeout,
			EventsTopic:    cfg.NATS.EventsTopic,
		}, logg)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsConn.Close()
		publisher = notify.NewPublisher(natsConn, cfg.NATS.EventsTopic)
	}

	progress := listening.NewProgress(runID)

	var httpServer *server.Server
	if cfg.Server.Addr != "" {
		httpServer = server.NewServer(cfg.Server, progress, logg)
		go func() {
			logg.Info("starting status server", "addr", cfg.Server.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logg.Error("status server error", "error", err)
			}
		}()
	}

	collector := listening.NewCollector(
		router,
		classifier,
		listening.NewVaderScorer(logg),
		listening.CollectorConfig{
			SearchTerms: cfg.Topic.SearchTerms,
			Channels:    cfg.Collector.Channels,
			ResultLimit: cfg.Collector.ResultLimit,
			Sort:        mention.Sort(cfg.Collector.Sort),
			ItemDelay:   cfg.Collector.ItemDelay,
		},
		listening.WithLogger(logg),
		listening.WithProgress(progress),
	)

	logg.Info("collection started",
		"anchor", classifier.Anchor(),
		"terms", len(cfg.Topic.SearchTerms),
		"channels", len(cfg.Collector.Channels))

	records, err := collector.Run(ctx)
	interrupted := errors.Is(err, context.Canceled)
	switch {
	case interrupted:
		logg.Warn("collection interrupted, reporting partial results", "records", len(records))
	case err != nil:
		logg.Error("collection stopped", "error", err, "records", len(records))
	default:
		logg.Info("collection finished", "records", len(records))
	}

	reporter := report.NewReporter(
		report.NewCSVSink(cfg.Export.Dir),
		os.Stdout,
		report.ReporterConfig{
			Prefix:      cfg.Export.Prefix,
			PreviewSize: cfg.Export.PreviewSize,
		},
		logg,
	)

	result, err := reporter.Report(records)
	if err != nil && !errors.Is(err, mention.ErrNoResults) {
		logg.Error("report failed", "error", err)
	}

	if publisher != nil {
		snapshot := progress.Snapshot()
		finishedAt := time.Now().UTC()
		if snapshot.FinishedAt != nil {
			finishedAt = *snapshot.FinishedAt
		}

		event := notify.RunEvent{
			RunID:         runID,
			Topic:         classifier.Anchor(),
			StartedAt:     snapshot.StartedAt,
			FinishedAt:    finishedAt,
			Interrupted:   interrupted,
			Total:         result.Summary.Total,
			MeanSentiment: result.Summary.MeanSentiment,
			ByKind:        result.Summary.ByKind,
			ByCategory:    result.Summary.ByCategory,
			ExportFile:    result.FileName,
		}
		if err := publisher.PublishRunCompleted(event); err != nil {
			logg.Error("failed to publish run event", "error", err)
		}
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logg.Error("status server shutdown error", "error", err)
		}
	}
}
