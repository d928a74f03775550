package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parkhub/internal/api"
	"parkhub/internal/catalog"
	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/domain"
	"parkhub/internal/events"
	"parkhub/internal/google"
	"parkhub/internal/logging"
	"parkhub/internal/metrics"
	"parkhub/internal/notify"
	"parkhub/internal/repository"
	"parkhub/internal/service"
	"parkhub/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	catalogSource, err := buildCatalog(cfg, &logger)
	if err != nil {
		return err
	}

	sessions := buildSessions(cfg, redisClient, &logger)

	eventBus := events.NewEventBus()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var syncWorker domain.SyncWorker
	if sheetsService := initGoogleSheets(cfg, &logger); sheetsService != nil {
		workerLogger := logger.With().Str("component", "sheets-worker").Logger()
		w := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.DefaultRetryPolicy(), &workerLogger)
		go w.Start(ctx)
		syncWorker = w
	}

	if cfg.Notify.TelegramToken != "" && cfg.Notify.ChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.Notify.TelegramToken)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		} else {
			notifyLogger := logger.With().Str("component", "notify").Logger()
			notify.NewTelegramNotifier(bot, cfg.Notify.ChatID, &notifyLogger).Subscribe(eventBus)
			logger.Info().Int64("chat_id", cfg.Notify.ChatID).Msg("telegram notifications enabled")
		}
	}

	bookingSvc := service.NewBookingService(db, catalogSource, eventBus, syncWorker, &logger)
	catalogSvc := service.NewCatalogService(catalogSource, &logger)
	authSvc := service.NewAuthService(db, sessions, &logger)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, bookingSvc, catalogSvc, authSvc, db, &logger)
	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildCatalog selects the spot source configured in catalog.source.
func buildCatalog(cfg *config.Config, logger *zerolog.Logger) (domain.CatalogSource, error) {
	timeout := time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second

	switch cfg.Catalog.Source {
	case "static":
		return catalog.NewStatic(cfg.Spots)
	case "remote":
		return catalog.NewRemote(cfg.Catalog.RemoteBaseURL, timeout), nil
	case "failover":
		static, err := catalog.NewStatic(cfg.Spots)
		if err != nil {
			return nil, err
		}
		remote := catalog.NewRemote(cfg.Catalog.RemoteBaseURL, timeout)
		return catalog.NewFailover(remote, static, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog source: %s", cfg.Catalog.Source)
	}
}

func buildSessions(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.Auth.SessionTTLSeconds) * time.Second
	memory := repository.NewMemorySessionRepository(ttl)

	if redisClient == nil {
		return memory
	}

	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("API server stopped")
	return nil
}
