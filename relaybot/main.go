package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaybot/relaybot/bot"
	"relaybot/relaybot/config"
	"relaybot/relaybot/controllers"
	"relaybot/relaybot/events"
	"relaybot/relaybot/routes"
	"relaybot/relaybot/session"
	"relaybot/relaybot/sources/store"
	"relaybot/relaybot/sources/store/dao"
	"relaybot/relaybot/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.ErrorLogger.Error("config error", zap.Error(err))
		os.Exit(1)
	}
	texts, err := config.LoadTexts(cfg.TextsFile)
	if err != nil {
		logging.ErrorLogger.Error("texts error", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := store.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	messageDAO := dao.NewMessageDAO(db.DB)

	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()

	router := session.NewRouter(cfg.SessionGating)

	tg, err := bot.NewTelegram(cfg.BotToken)
	if err != nil {
		logging.ErrorLogger.Error("telegram connection error", zap.Error(err))
		os.Exit(1)
	}
	dispatcher := controllers.NewDispatcher(messageDAO, router, tg, texts, hub, cfg)
	b := bot.New(tg, dispatcher)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go b.Run(runCtx)

	var srv *http.Server
	if cfg.OpsAddr != "" {
		opsCtrl := controllers.NewOpsController(messageDAO)
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Mount("/", routes.OpsRoutes(opsCtrl, hub, cfg))

		srv = &http.Server{
			Addr:    cfg.OpsAddr,
			Handler: r,
		}
		go func() {
			logging.AppLogger.Info("ops server listening", zap.String("addr", cfg.OpsAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.ErrorLogger.Error("ops server listen error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	stop()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.ErrorLogger.Error("ops server shutdown error", zap.Error(err))
		}
	}
	logging.AppLogger.Info("shutdown complete")
}
