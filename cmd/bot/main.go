package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiobook/internal/api"
	"studiobook/internal/app"
	"studiobook/internal/bot"
	"studiobook/internal/logging"
	"studiobook/internal/service"
	"studiobook/internal/state"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := app.LoadConfigAndLogger("bot-main")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := cfg.ValidateTelegram(); err != nil {
		logger.Error().Err(err).Msg("Set the bot token in config.yaml or TELEGRAM_BOT_TOKEN")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Bootstrap(ctx, cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap failed")
		return err
	}
	defer rt.Close()

	rt.StartBackground(ctx)
	app.StartMetricsServer(ctx, cfg.Monitoring, &logger)

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg.API, cfg.Studio.TimeSlots, rt.Bookings, rt.Store, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	botWrapper, err := bot.NewBotWrapper(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create BotAPI")
		return err
	}
	tgService := service.NewTelegramService(botWrapper)

	studio := state.NewController(rt.Bookings, logging.Component(&logger, "studio"))
	metrics := bot.NewMetrics(prometheus.DefaultRegisterer)

	telegramBot := bot.NewBot(tgService, cfg, rt.StateService(), studio, metrics, logging.Component(&logger, "bot"))

	logger.Info().Msg("Bot started")
	go func() {
		<-ctx.Done()
		telegramBot.Stop()
	}()
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
