package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bob752130-bit/nvidia-nim-proxy/internal/config"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/metrics"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/middleware"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/relay"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/upstream"
)

type Server struct {
	Router http.Handler
}

func NewServer(cfg config.Config, logger zerolog.Logger) *Server {
	client := upstream.New(cfg.UpstreamBaseURL, cfg.APIKey)
	translator := relay.NewTranslator(relay.DefaultAliases(), cfg.InjectPrompt)
	mtr := metrics.New()

	h := &handlers{
		cfg:        cfg,
		log:        logger,
		client:     client,
		translator: translator,
		metrics:    mtr,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.AccessLog(logger))

	r.Get("/", h.Info)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	r.Method(http.MethodGet, "/metrics", mtr.HTTPHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", h.ListModels)
		r.Post("/chat/completions", h.ChatCompletions)
	})

	return &Server{Router: r}
}
