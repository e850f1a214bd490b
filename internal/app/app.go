// Package app wires the shared runtime used by the API and bot binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/events"
	"studiobook/internal/logging"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
	"studiobook/internal/recordstore"
	"studiobook/internal/repository"
	"studiobook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const degradedPollInterval = 15 * time.Second

// LoadConfigAndLogger reads CONFIG_PATH (default configs/config.yaml) and
// builds the component logger.
func LoadConfigAndLogger(component string) (*config.Config, zerolog.Logger, io.Closer, error) {
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
	logger := baseLogger.With().Str("component", component).Logger()

	return cfg, logger, closer, nil
}

// Runtime holds the storage and service graph shared by both binaries.
type Runtime struct {
	Config   *config.Config
	Redis    *redis.Client
	Store    recordstore.Store
	Events   *events.EventBus
	Bookings *service.BookingService

	logger *zerolog.Logger
}

func Bootstrap(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, logger: logger}

	if needsRedis(cfg) {
		rt.Redis = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, rt.Redis); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("Redis unavailable")
		} else {
			logger.Info().Str("addr", cfg.Redis.Address).Msg("Redis connected")
		}
	}

	store, err := recordstore.Open(ctx, cfg, rt.Redis, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open record store: %w", err)
	}
	rt.Store = store

	rt.Events = events.NewEventBus()
	SubscribeEvents(rt.Events, logger)

	rt.Bookings = service.NewBookingService(
		store,
		rt.Events,
		logging.Component(logger, "booking-service"),
		service.WithValidator(service.ValidatorFor(cfg.Studio.StrictBookings)),
		service.WithDelay(cfg.Studio.APIDelay),
	)
	return rt, nil
}

func needsRedis(cfg *config.Config) bool {
	if cfg.Redis.Address == "" {
		return false
	}
	return cfg.Store.Driver == config.StoreRedis || cfg.Bot.Sessions == "redis"
}

// StateService keeps operator sessions in Redis when configured, falling back
// to memory while Redis is down.
func (rt *Runtime) StateService() *service.StateService {
	ttl := time.Duration(models.DefaultRedisTTL) * time.Second
	memoryRepo := repository.NewMemoryStateRepository(ttl)
	if rt.Config.Bot.Sessions != "redis" || rt.Redis == nil {
		return service.NewStateService(memoryRepo, rt.logger)
	}

	primary := repository.NewRedisStateRepository(rt.Redis, rt.Config.Store.RedisPrefix, ttl)
	return service.NewStateService(repository.NewFailoverStateRepository(primary, memoryRepo, rt.logger), rt.logger)
}

// StartBackground runs the SQLite backup loop and the degraded-store gauge
// until ctx is done.
func (rt *Runtime) StartBackground(ctx context.Context) {
	if rt.Config.Backup.Enabled {
		if rt.Config.Store.Driver == config.StoreSQLite {
			backup := recordstore.NewBackupService(rt.Config.Store.Path, rt.Config.Backup, logging.Component(rt.logger, "backup"))
			go backup.Start(ctx)
		} else {
			rt.logger.Warn().Str("driver", rt.Config.Store.Driver).Msg("Backups only cover the sqlite store")
		}
	}

	if fs, ok := rt.Store.(*recordstore.FailoverStore); ok {
		go watchDegraded(ctx, fs, degradedPollInterval)
	}
}

func watchDegraded(ctx context.Context, fs *recordstore.FailoverStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		metrics.SetStoreDegraded(fs.Degraded())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (rt *Runtime) Close() {
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			rt.logger.Error().Err(err).Msg("Failed to close record store")
		}
	}
	if err := repository.Close(rt.Redis); err != nil {
		rt.logger.Error().Err(err).Msg("Failed to close redis client")
	}
}

// SubscribeEvents counts every mutation event and writes an audit log line.
func SubscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	audit := logging.Component(logger, "audit")

	bus.SubscribeAll(func(ev *events.Event) error {
		metrics.IncMutation(ev.Type)

		entry := audit.Info().Str("event", ev.Type).Time("at", ev.CreatedAt)
		switch ev.Type {
		case events.EventClientCreated, events.EventClientDeleted:
			var p events.ClientEventPayload
			if err := ev.Decode(&p); err != nil {
				return fmt.Errorf("decode %s payload: %w", ev.Type, err)
			}
			entry = entry.Str("client_id", p.ClientID)
			if p.Name != "" {
				entry = entry.Str("name", p.Name)
			}
			if p.CascadedBookings > 0 {
				entry = entry.Int("cascaded_bookings", p.CascadedBookings)
			}
		default:
			var p events.BookingEventPayload
			if err := ev.Decode(&p); err != nil {
				return fmt.Errorf("decode %s payload: %w", ev.Type, err)
			}
			entry = entry.Str("booking_id", p.BookingID).
				Str("client_id", p.ClientID).
				Str("date", p.Date).
				Str("time_slot", p.TimeSlot)
		}
		entry.Msg("Studio data changed")
		return nil
	})
}

// StartMetricsServer serves /metrics until ctx is done. It is a no-op unless
// monitoring is enabled.
func StartMetricsServer(ctx context.Context, cfg config.MonitoringConfig, logger *zerolog.Logger) {
	if !cfg.PrometheusEnabled {
		return
	}
	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}
