// Package main is the entry point for the background worker.
//
// The worker owns the studio's recurring jobs:
//   - the membership-expiry reminder sweep at 13:00 studio time
//   - the owner's operations report at 23:00 studio time
//
// It runs as a separate process so a stuck job can never slow down the
// check-in kiosk.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/config"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/query"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/messaging"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/persistence/postgres"
	redisstore "github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/persistence/redis"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/scheduler"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/scheduler/jobs"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/service"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/circuitbreaker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	memberRepo := postgres.NewMemberRepository(dbConn)
	attendanceRepo := postgres.NewAttendanceRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. EVENT BUS
	// The expiry sweep publishes membership events. With Redis available they
	// reach the server process too; without it they stay local to the worker.
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	var publisher shared.EventPublisher
	var closeBus func() error

	if !cfg.Redis.Disabled {
		cache, err := redisstore.NewCache(redisConfig(cfg))
		if err != nil {
			log.Warn("failed to connect to Redis, events stay local", "error", err)
		} else {
			defer cache.Close()
			bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
				Client:      cache.Client(),
				LocalConfig: busConfig,
				Logger:      log,
			})
			if err != nil {
				return fmt.Errorf("failed to create event bus: %w", err)
			}
			publisher = bus
			closeBus = bus.Close
		}
	}
	if publisher == nil {
		bus := messaging.NewInMemoryEventBus(busConfig)
		publisher = bus
		closeBus = bus.Close
	}
	defer func() { _ = closeBus() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. NOTIFIER AND JOBS
	// ─────────────────────────────────────────────────────────────────────────
	notifier := buildNotifier(cfg, log)

	expiringConfig := jobs.DefaultExpiringMembersConfig()
	expiringConfig.Enabled = cfg.Features.IsEnabled(config.FeatureNotifyMembershipExpiring, nil)
	expiringConfig.Timeout = cfg.Scheduler.JobTimeout
	expiringJob := jobs.NewExpiringMembersJob(memberRepo, notifier, publisher, log, expiringConfig)

	reportConfig := jobs.DefaultDailyReportConfig()
	reportConfig.Enabled = cfg.Features.IsEnabled(config.FeatureReportDaily, nil)
	reportJob := jobs.NewDailyReportJob(
		query.NewGetDailyReportHandler(attendanceRepo, memberRepo), notifier, log, reportConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	sched := scheduler.NewScheduler(schedConfig)

	if err := sched.Register(expiringJob, scheduler.DailyAt(cfg.Scheduler.ExpirySweepHour, cfg.Scheduler.ExpirySweepMinute)); err != nil {
		return fmt.Errorf("failed to register expiry sweep: %w", err)
	}
	if err := sched.Register(reportJob, scheduler.DailyAt(cfg.Scheduler.DailyReportHour, cfg.Scheduler.DailyReportMinute)); err != nil {
		return fmt.Errorf("failed to register daily report: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("worker is running",
		"expiry_sweep", fmt.Sprintf("%02d:%02d", cfg.Scheduler.ExpirySweepHour, cfg.Scheduler.ExpirySweepMinute),
		"daily_report", fmt.Sprintf("%02d:%02d", cfg.Scheduler.DailyReportHour, cfg.Scheduler.DailyReportMinute),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// connectDatabase prefers DATABASE_URL and falls back to the composed DSN
// with pool settings from config.
func connectDatabase(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}
	return postgres.NewConnection(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Name,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MinIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
}

func redisConfig(cfg *config.Config) redisstore.Config {
	rc := redisstore.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

// buildNotifier selects the delivery channel. Until the provider contracts
// land, everything but "log" falls back to the logging transport.
func buildNotifier(cfg *config.Config, log *slog.Logger) notification.Notifier {
	if cfg.Notifier.Channel != "log" {
		log.Warn("notifier channel not yet available, falling back to log",
			"channel", cfg.Notifier.Channel,
		)
	}

	var notifier notification.Notifier = service.NewLogNotifier(log)
	if cfg.Notifier.BreakerEnabled {
		notifier = service.NewBreakerNotifier(notifier, func(name string, from, to circuitbreaker.State) {
			log.Warn("notifier breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		})
	}
	return notifier
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
