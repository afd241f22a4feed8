package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mur0dDev/Classification-Bot/internal/config"
	"github.com/Mur0dDev/Classification-Bot/internal/engine"
	"github.com/Mur0dDev/Classification-Bot/internal/events"
	"github.com/Mur0dDev/Classification-Bot/internal/handler"
	"github.com/Mur0dDev/Classification-Bot/internal/router"
	"github.com/Mur0dDev/Classification-Bot/internal/service"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
	"github.com/Mur0dDev/Classification-Bot/internal/telegram"
)

const (
	eventHistory    = 100
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the admin API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	ctx := cmd.Context()

	flows, err := loadFlows(cfg)
	if err != nil {
		return err
	}
	sheet, closeStore, err := openStore(ctx, cfg, logger.Named("store"))
	if err != nil {
		return err
	}
	defer closeStore()
	if err := ensureHeaders(ctx, flows, sheet); err != nil {
		return err
	}

	api, err := telegram.Connect(cfg.Telegram.Token, cfg.Telegram.Debug)
	if err != nil {
		return err
	}
	logger.Info("connected to Telegram", zap.String("bot", api.Self.UserName))
	bot := telegram.NewBot(api, cfg.Telegram.GroupID, logger.Named("telegram"))
	if err := bot.RegisterCommands(); err != nil {
		logger.Warn("failed to register bot commands", zap.Error(err))
	}

	hub := events.NewHub(eventHistory)
	sessions := session.NewMemoryStore(cfg.Session.IdleTimeout, logger.Named("session"))
	coord := submission.NewCoordinator(flows, sheet, bot, logger.Named("submission"), submission.WithObserver(hub))
	eng := engine.New(flows, sessions, bot, coord, logger.Named("engine"))
	dispatcher := telegram.NewDispatcher(bot, eng, cfg.Telegram.Workers, logger.Named("dispatch"))

	var (
		updates <-chan tgbotapi.Update
		webhook http.Handler
	)
	if cfg.Telegram.Mode == config.ModeWebhook {
		ch := make(chan tgbotapi.Update, 256)
		webhook = telegram.WebhookHandler(api, ch, logger.Named("webhook"))
		if err := telegram.SetWebhook(api, cfg.Telegram.WebhookURL); err != nil {
			return err
		}
		updates = ch
	} else {
		updates = telegram.Poll(api, cfg.Telegram.Timeout)
	}

	authSvc := service.NewAuthService(cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	dashSvc := service.NewDashboardService(sessions, flows, sheet, hub)
	r := router.New(cfg.Auth.JWTSecret, logger.Named("http"),
		handler.NewAuthHandler(authSvc),
		handler.NewDashboardHandler(dashSvc),
		handler.NewEventsHandler(dashSvc, logger.Named("events")),
		webhook,
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Run(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("admin API listening", zap.String("addr", cfg.HTTP.Addr), zap.String("mode", cfg.Telegram.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return dispatcher.Run(ctx, updates)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		if cfg.Telegram.Mode == config.ModePolling {
			api.StopReceivingUpdates()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
