package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bob752130-bit/nvidia-nim-proxy/internal/api"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/config"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel)
	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Str("upstream", cfg.UpstreamBaseURL).
		Bool("show_reasoning", cfg.ShowReasoning).
		Bool("inject_prompt", cfg.InjectPrompt).
		Msg("starting nim proxy")

	app := api.NewServer(cfg, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
