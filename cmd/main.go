package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mau.fi/whatsmeow/types/events"

	"relampago-bridge/internal/config"
	"relampago-bridge/internal/infrastructure"
	httpiface "relampago-bridge/internal/interfaces/http"
	"relampago-bridge/internal/logging"
	"relampago-bridge/internal/usecases"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// .env is optional; config falls back to defaults + environment.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic("config: " + err.Error())
	}

	logger := logging.New(cfg.Log)

	hub := httpiface.NewHub(logger)
	go hub.Run()

	waClient, err := infrastructure.NewWhatsAppClient(cfg.WhatsApp.StorePath, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("whatsapp client init failed")
	}

	backend := infrastructure.NewBackendClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	tracker := infrastructure.NewChatTracker()
	router := usecases.NewRouter(backend, waClient, tracker, logger)

	// Each message event is handled to completion on its own goroutine;
	// ordering is guaranteed within one event, not across chats.
	waClient.AddHandler(func(evt interface{}) {
		if msgEvt, ok := evt.(*events.Message); ok {
			msg := waClient.ParseMessage(msgEvt)
			go router.HandleMessage(ctx, msg)
		}
	})

	supervisor := infrastructure.NewSessionSupervisor(
		waClient,
		cfg.WhatsApp.ReconnectDelay,
		cfg.WhatsApp.ReconnectAttempts,
		logger,
	)
	go func() { _ = supervisor.Run(ctx) }()

	if err := waClient.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("whatsapp connect failed")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	handler := httpiface.NewHandler(waClient, waClient, tracker, hub, logger)
	middleware := httpiface.NewMiddleware(cfg.Server.RateRPS, cfg.Server.RateBurst, cfg.Server.MaxBodyBytes)
	httpiface.SetupRoutes(r, handler, middleware)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	// Session teardown must complete before exit.
	waClient.Disconnect()
	hub.Shutdown()
	logger.Info().Msg("bye")
}
