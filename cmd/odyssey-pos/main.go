package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-pos/cmd/odyssey-pos/cli"
	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	analytichttp "github.com/odyssey-erp/odyssey-pos/internal/analytics/http"
	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/invoice"
	"github.com/odyssey-erp/odyssey-pos/internal/marketing"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/sales"
	"github.com/odyssey-erp/odyssey-pos/jobs"
	"github.com/odyssey-erp/odyssey-pos/report"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCommand(os.Args[2:]))
	}

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("odyssey-pos", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	policy, err := cfg.PricingPolicy()
	if err != nil {
		return err
	}

	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close", slog.Any("error", err))
		}
	}()

	var (
		redisClient *redis.Client
		jobClient   *jobs.Client
		inspector   *asynq.Inspector
		redisOpts   = asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	)
	if cfg.RedisEnabled() {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and jobs", slog.Any("error", err))
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		jobClient = jobs.NewClient(redisOpts)
		defer func() { _ = jobClient.Close() }()
		inspector = asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	var publisher notify.Publisher
	if jobClient != nil {
		publisher = jobClient
	}
	feed := notify.NewFeed(cfg.FeedViewLimit, publisher, logger)

	analyticsCache := analytics.NewCache(redisClient, cfg.DashboardCacheTTL)
	analyticsService := analytics.NewService(st, analyticsCache, analytics.Config{
		AlertLevel: cfg.StockAlertLevel,
		Currency:   cfg.Currency,
	}, logger)

	inventoryService := inventory.NewService(st, feed, analyticsService, inventory.ServiceConfig{
		AlertLevel: cfg.StockAlertLevel,
	}, logger)

	renderer, err := invoice.NewRenderer(cfg.CompanyName)
	if err != nil {
		return err
	}
	var (
		pdfClient    invoice.PDFClient
		reportClient report.PDFRenderer
	)
	if cfg.GotenbergURL != "" {
		client := report.NewClient(cfg.GotenbergURL)
		pdfClient, reportClient = client, client
	}
	emitter, err := invoice.NewEmitter(cfg.InvoiceDir, renderer, pdfClient, logger)
	if err != nil {
		return err
	}

	salesService, err := sales.NewService(sales.Config{
		Store:    st,
		Emitter:  emitter,
		Notifier: feed,
		Cache:    analyticsService,
		Metrics:  metrics,
		Policy:   policy,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	marketingClient := marketing.NewClient(marketing.ClientConfig{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
	})
	if !marketingClient.Configured() {
		logger.Info("gemini api key not set, marketing copy disabled")
	}
	marketingService := marketing.NewService(inventoryService, marketingClient, logger)

	jobHandler := jobs.NewHandler(nil, nil, logger)
	if jobClient != nil {
		jobHandler = jobs.NewHandler(inspector, jobClient, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		SalesHandler:     sales.NewHandler(logger, salesService),
		InvoiceHandler:   invoice.NewHandler(logger, invoice.NewStore(cfg.InvoiceDir)),
		FeedHandler:      notify.NewHandler(logger, feed),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService),
		MarketingHandler: marketing.NewHandler(logger, marketingService),
		ReportHandler:    report.NewHandler(reportClient, renderer, policy, logger),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)

	if jobClient != nil && cfg.JobsEnabled {
		worker, err := newWorker(cfg, redisOpts, logger, metrics, feed, analyticsService, inventoryService)
		if err != nil {
			return err
		}
		group.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newWorker(
	cfg *app.Config,
	redisOpts asynq.RedisClientOpt,
	logger *slog.Logger,
	metrics *observability.Metrics,
	feed *notify.Feed,
	analyticsService *analytics.Service,
	inventoryService *inventory.Service,
) (*jobs.Worker, error) {
	jobMetrics := metrics.Jobs()
	dispatchJob := jobs.NewNotificationDispatchJob(cfg.NotifyWebhookURL, logger, jobMetrics)
	depletionJob := jobs.NewDepletionScanJob(analyticsService, feed, logger, jobMetrics)
	lowStockJob := jobs.NewLowStockScanJob(inventoryService, feed, logger, jobMetrics)
	warmupJob := jobs.NewDashboardWarmupJob(analyticsService, logger, jobMetrics)

	now := time.Now()
	depletionTask, err := jobs.NewDepletionScanTask(now)
	if err != nil {
		return nil, err
	}
	lowStockTask, err := jobs.NewLowStockScanTask(now)
	if err != nil {
		return nil, err
	}
	warmupTask, err := jobs.NewDashboardWarmupTask(now)
	if err != nil {
		return nil, err
	}

	return jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNotificationDispatch, Handler: dispatchJob.Handle},
			{Type: jobs.TaskDepletionScan, Handler: depletionJob.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DepletionScanCron, Task: depletionTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.LowStockScanCron, Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
}

func runJobsCommand(args []string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	if !cfg.RedisEnabled() {
		slog.Default().Error("jobs: REDIS_ADDR is not set")
		return 1
	}
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = jobsCLI.Close() }()
	return jobsCLI.Command(context.Background(), cli.JobsOptions{Args: args})
}
