package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetbook/internal/api"
	"fleetbook/internal/config"
	"fleetbook/internal/database"
	"fleetbook/internal/events"
	"fleetbook/internal/logging"
	"fleetbook/internal/mailer"
	"fleetbook/internal/metrics"
	"fleetbook/internal/models"
	"fleetbook/internal/notify"
	"fleetbook/internal/service"
	"fleetbook/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	fleetPath := flag.String("fleet", "configs/fleet.yaml", "path to fleet file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	metrics.Register()

	fleet, err := loadFleet(*fleetPath)
	if err != nil {
		return fmt.Errorf("load fleet: %w", err)
	}
	if err := config.ValidateFleet(fleet); err != nil {
		return fmt.Errorf("validate fleet: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	mailClient := mailer.New(mailer.Config{
		APIKey:    cfg.Mail.APIKey,
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
		BaseURL:   cfg.Mail.BaseURL,
	}, logger)
	if !mailClient.Enabled() {
		logger.Warn().Msg("mailer is not configured, customer notifications disabled")
	}

	mailWorker := worker.NewMailWorker(db, mailClient, redisClient, worker.RetryPolicy{
		MaxRetries:   cfg.Worker.MaxRetries,
		InitialDelay: time.Duration(cfg.Worker.InitialDelaySec) * time.Second,
		MaxDelay:     time.Duration(cfg.Worker.MaxDelaySec) * time.Second,
	}, logger)
	go mailWorker.Start(ctx)

	bus := events.NewEventBus()

	dispatcher := notify.NewDispatcher(mailWorker, mailClient, initAdminNotifier(cfg.Telegram, logger), logger)
	dispatcher.Register(bus)

	bookingService := service.NewBookingService(db, bus, logger)

	vehicleService := service.NewVehicleService(db, logger)
	if err := vehicleService.SyncFleet(ctx, fleet); err != nil {
		return fmt.Errorf("sync fleet: %w", err)
	}

	httpServer := api.NewHTTPServer(cfg.API, bookingService, vehicleService, logger)

	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Start()
	}()

	var metricsServer *http.Server
	if cfg.Monitoring.PrometheusEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("metrics listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics shutdown")
		}
	}

	return nil
}

func loadFleet(path string) ([]models.Vehicle, error) {
	if env := os.Getenv("FLEET_PATH"); env != "" {
		path = env
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Vehicles []models.Vehicle `yaml:"vehicles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Vehicles, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig, logger *zerolog.Logger) *redis.Client {
	if cfg.Address == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Address).Msg("redis unreachable, mail queue falls back to polling")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Address).Msg("redis connected")
	return client
}

func initAdminNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) *notify.AdminNotifier {
	if cfg.BotToken == "" || len(cfg.AdminChatIDs) == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, admin alerts disabled")
		return nil
	}
	bot.Debug = cfg.Debug

	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.AdminChatIDs)).Msg("telegram admin alerts enabled")
	return notify.NewAdminNotifier(bot, cfg.AdminChatIDs, logger)
}
