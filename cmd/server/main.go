// Package main is the entry point for the kiosk API server.
//
// The server owns the synchronous path: check-in, member lookup, instructor
// verification, and the owner's daily report. Everything that can happen
// after the check-in commits (classification, notices, anomaly alerts) runs
// on the event bus, off the request path.
//
// The layering follows Clean Architecture:
//   - Domain: business rules with no external dependencies
//   - Application: command and query handlers, event handlers
//   - Infrastructure: Postgres, Redis, notification transports, scheduler
//   - Interface: the HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/config"

	// Application layer
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/command"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/eventhandler"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/query"

	// Domain layer
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"

	// Infrastructure layer
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/messaging"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/persistence/postgres"
	redisstore "github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/persistence/redis"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/interface/http"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/interface/http/handlers"

	// Packages
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/circuitbreaker"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/logger"
)

// eventBus is the common surface of the in-memory and Redis-bridged buses.
type eventBus interface {
	shared.EventPublisher
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	Close() error
}

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
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting kiosk server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	log.Info("running database migrations")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache       *redisstore.Cache
		memberCache member.Cache
		lookupLimit query.LookupRateLimiter
	)
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis", "addr", cfg.Redis.Addr())
		cache, err = redisstore.NewCache(redisConfig(cfg))
		if err != nil {
			// Caching and lookup limiting degrade; check-in still works.
			log.Warn("failed to connect to Redis, continuing without cache", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			memberCache = redisstore.NewMemberCache(cache)
			lookupLimit = redisstore.NewRateLimiter(cache,
				cfg.CheckIn.LookupRateLimitPerMinute, redisstore.TTLRateLimitWindow)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	var bus eventBus
	if cache != nil {
		bus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:      cache.Client(),
			LocalConfig: busConfig,
			Logger:      log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		bus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		log.Info("closing event bus")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	memberRepo := postgres.NewMemberRepository(dbConn)
	attendanceRepo := postgres.NewAttendanceRepository(dbConn)
	practiceRepo := postgres.NewPracticeEventRepository(dbConn)
	instructorRepo := postgres.NewInstructorRepository(dbConn)
	checkInStore := postgres.NewCheckInStore(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. NOTIFICATION CHANNEL
	// ─────────────────────────────────────────────────────────────────────────
	notifier := buildNotifier(cfg, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	planCatalog := service.NewStaticPlanCatalog()

	checkInHandler := command.NewCheckInHandler(checkInStore, planCatalog, bus, command.CheckInConfig{
		IsolatedHistoryReads: cfg.CheckIn.IsolatedHistoryReads,
		HistoryLimit:         cfg.CheckIn.HistoryLimit,
	})

	lookupHandler := query.NewLookupMemberHandler(memberRepo, lookupLimit)
	verifyHandler := query.NewVerifyInstructorHandler(instructorRepo)
	statusHandler := query.NewGetMemberStatusHandler(memberRepo, memberCache, attendanceRepo, practiceRepo)
	reportHandler := query.NewGetDailyReportHandler(attendanceRepo, memberRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	classifierConfig := eventhandler.DefaultClassifierConfig()
	classifierConfig.SendNotice = cfg.Features.IsEnabled(config.FeatureNotifyPractice, nil)
	classifier := eventhandler.NewOnCheckInCommittedHandler(
		attendanceRepo, practiceRepo, bus, notifier, log, classifierConfig)

	monitorConfig := eventhandler.DefaultCreditsMonitorConfig()
	monitorConfig.NotifyOnDepletion = cfg.Features.IsEnabled(config.FeatureNotifyCreditsDepleted, nil)
	creditsMonitor := eventhandler.NewOnCreditsChangedHandler(notifier, bus, log, monitorConfig)

	if err := bus.Subscribe(shared.EventCheckInCommitted, classifier.Handle); err != nil {
		return fmt.Errorf("failed to subscribe classifier: %w", err)
	}
	if err := bus.Subscribe(shared.EventMemberCreditsChanged, creditsMonitor.Handle); err != nil {
		return fmt.Errorf("failed to subscribe credits monitor: %w", err)
	}

	// A check-in mutates the member row, so the cached copy goes stale the
	// moment the transaction commits. Events replayed from the redis bridge
	// count too: a commit on another instance evicts the copy held here.
	if memberCache != nil {
		invalidate := service.NewMemberCacheInvalidator(memberCache, log)
		for _, eventType := range service.MemberCacheInvalidationEvents {
			if err := bus.Subscribe(eventType, invalidate); err != nil {
				return fmt.Errorf("failed to subscribe cache invalidator: %w", err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if cache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(cache))
	}

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.IdleTimeout = cfg.Server.IdleTimeout
	httpConfig.EnableCORS = cfg.Server.EnableCORS
	httpConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	httpConfig.AdminAPIKeys = cfg.Server.AdminAPIKeys

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		CheckInHandler:          checkInHandler,
		LookupMemberHandler:     lookupHandler,
		VerifyInstructorHandler: verifyHandler,
		GetMemberStatusHandler:  statusHandler,
		GetDailyReportHandler:   reportHandler,
		Logger:                  logger.Default(),
		HealthChecker:           healthChecker,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 11. RUN AND SHUT DOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", server.Address())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("shutting down", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
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
