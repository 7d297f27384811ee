package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wang2-lat/my-personal-bloomberg/internal/config"
	"github.com/wang2-lat/my-personal-bloomberg/internal/infra/analyst"
	"github.com/wang2-lat/my-personal-bloomberg/internal/infra/feed"
	"github.com/wang2-lat/my-personal-bloomberg/internal/infra/macro"
	"github.com/wang2-lat/my-personal-bloomberg/internal/infra/marketdata"
	"github.com/wang2-lat/my-personal-bloomberg/internal/infra/messenger"
	workerPkg "github.com/wang2-lat/my-personal-bloomberg/internal/infra/worker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/logging"
	envcfg "github.com/wang2-lat/my-personal-bloomberg/internal/pkg/config"
	"github.com/wang2-lat/my-personal-bloomberg/internal/refdata"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/assess"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/derive"
	marketdataUC "github.com/wang2-lat/my-personal-bloomberg/internal/usecase/marketdata"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/notify"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/pipeline"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/resolve"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	// Credentials are fail-closed: refuse to start without them.
	creds, err := config.Load()
	if err != nil {
		logger.Error("invalid credentials", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Operational settings are fail-open: bad values fall back to defaults.
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.String("feed_url", workerConfig.FeedURL),
		slog.Int("max_items", workerConfig.MaxItems),
		slog.Int("ma_window", workerConfig.MAWindow),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	p, err := buildPipeline(ctx, logger, creds, workerConfig)
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	runScheduler(ctx, logger, p, workerConfig, workerMetrics, healthServer)
}

// buildPipeline wires the providers, use cases, and delivery channels
// into a runnable pipeline.
func buildPipeline(ctx context.Context, logger *slog.Logger, creds *config.Credentials, cfg *workerPkg.WorkerConfig) (*pipeline.Pipeline, error) {
	tables, err := refdata.Load()
	if err != nil {
		return nil, fmt.Errorf("load reference tables: %w", err)
	}

	httpClient := newHTTPClient()
	sourceName := envcfg.LoadEnvString("PULSE_FEED_SOURCE", "WSJ US Business")
	feedFetcher := feed.NewRSSFetcher(httpClient, sourceName)

	finnhub := marketdata.NewFinnhubClient(creds.FinnhubKey)
	yahoo := marketdata.NewYahooClient()
	aggregator := marketdataUC.NewAggregator(finnhub, yahoo, finnhub, yahoo, cfg.MAWindow)

	analystClient, err := analyst.New(ctx, creds.AnalystBackend, creds.AnalystKey)
	if err != nil {
		return nil, fmt.Errorf("create analyst backend: %w", err)
	}
	logger.Info("analyst backend initialized",
		slog.String("backend", creds.AnalystBackend),
		slog.String("name", analystClient.Name()))

	var macroSource pipeline.MacroSource
	if creds.FREDKey != "" {
		macroSource = macro.NewFREDClient(creds.FREDKey)
		logger.Info("macro indicator enabled", slog.String("series", macro.PhillyFedSeriesID))
	} else {
		logger.Info("macro indicator disabled, FRED_KEY not set")
	}

	dispatcher := notify.NewDispatcher(buildChannels(logger, creds))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		// Validated fail-open earlier; UTC keeps the worker alive anyway.
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone))
		loc = time.UTC
	}

	return pipeline.New(
		feedFetcher,
		resolve.NewResolver(tables),
		aggregator,
		derive.NewEngine(tables),
		assess.NewAssessor(analystClient),
		dispatcher,
		macroSource,
		pipeline.Config{
			FeedURL:  cfg.FeedURL,
			MaxItems: cfg.MaxItems,
			Timezone: loc,
		},
	), nil
}

// buildChannels constructs the delivery channels from credentials.
// PULSE_DRY_RUN=true swaps every real channel for the logging noop
// channel, keeping the rest of the pipeline live against real APIs.
func buildChannels(logger *slog.Logger, creds *config.Credentials) []notify.Channel {
	dryRun := envcfg.LoadEnvBool("PULSE_DRY_RUN", false).Value.(bool)
	if dryRun {
		logger.Warn("dry run enabled, notifications will be logged and discarded")
		return []notify.Channel{&messenger.NoopChannel{LogOnly: true}}
	}

	var channels []notify.Channel
	if creds.Lark.Complete() {
		channels = append(channels, messenger.NewLarkChannel(messenger.LarkConfig{
			Enabled:   true,
			AppID:     creds.Lark.AppID,
			AppSecret: creds.Lark.AppSecret,
			ChatID:    creds.Lark.ChatID,
		}))
		logger.Info("Lark channel initialized")
	}
	if creds.Telegram.Complete() {
		channels = append(channels, messenger.NewTelegramChannel(messenger.TelegramConfig{
			Enabled:  true,
			BotToken: creds.Telegram.BotToken,
			ChatID:   creds.Telegram.ChatID,
		}))
		logger.Info("Telegram channel initialized")
	}
	return channels
}

// newHTTPClient builds the shared outbound HTTP client with pooling and
// TLS 1.2+.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// runScheduler registers the pipeline on the cron schedule and blocks
// until the context is cancelled.
func runScheduler(ctx context.Context, logger *slog.Logger, p *pipeline.Pipeline, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, scheduling in UTC", slog.String("timezone", cfg.Timezone))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runPipelineJob(logger, p, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to register cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	if envcfg.LoadEnvBool("PULSE_RUN_ON_START", false).Value.(bool) {
		logger.Info("running pipeline immediately on startup")
		runPipelineJob(logger, p, cfg, metrics)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	// Let an in-flight run finish before exiting.
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(cfg.RunTimeout):
		logger.Warn("in-flight run did not finish before shutdown deadline")
	}
	logger.Info("worker stopped")
}

// runPipelineJob executes one scheduled run with a timeout and records
// the run metrics.
func runPipelineJob(logger *slog.Logger, p *pipeline.Pipeline, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	start := time.Now()
	logger.Info("pipeline run starting")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	stats, err := p.Run(ctx)
	metrics.RecordRunDuration(time.Since(start).Seconds())
	if err != nil {
		logger.Error("pipeline run failed", slog.Any("error", err))
		metrics.RecordRun("failure")
		return
	}

	metrics.RecordRun("success")
	metrics.RecordItemsEnriched(stats.ItemsProcessed)
	metrics.RecordLastSuccess()

	logger.Info("pipeline run finished",
		slog.Int("items", stats.ItemsProcessed),
		slog.Int("delivered", stats.Delivered),
		slog.Int("assessment_defaults", stats.AssessmentDefaults),
		slog.Bool("overview_delivered", stats.OverviewDelivered),
		slog.Duration("duration", stats.Duration))
}
