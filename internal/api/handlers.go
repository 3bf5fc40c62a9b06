package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/bob752130-bit/nvidia-nim-proxy/internal/config"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/metrics"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/middleware"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/openai"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/relay"
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/upstream"
)

type handlers struct {
	cfg        config.Config
	log        zerolog.Logger
	client     *upstream.Client
	translator *relay.Translator
	metrics    *metrics.Metrics
}

func (h *handlers) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "nvidia-nim-proxy",
		"status":   "ok",
		"upstream": h.cfg.UpstreamBaseURL,
	})
	h.metrics.RecordRequest("info", http.StatusOK)
}

// ListModels replays the upstream model listing 1:1, including non-2xx
// statuses.
func (h *handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	status, contentType, body, err := h.client.ListModels(r.Context())
	if err != nil {
		h.log.Error().Err(err).Str("rid", middleware.RequestIDFrom(r.Context())).Msg("models passthrough failed")
		writeError(w, http.StatusInternalServerError, openai.ErrorDetail{
			Message: "failed to reach upstream API",
			Type:    "api_error",
		})
		h.metrics.RecordRequest("models", http.StatusInternalServerError)
		return
	}
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
	h.metrics.RecordRequest("models", status)
}

func (h *handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, openai.ErrorDetail{
			Message: "invalid JSON body",
			Type:    "invalid_request_error",
		})
		h.metrics.RecordRequest("chat", http.StatusBadRequest)
		return
	}

	outbound := h.translator.Translate(req)
	body, err := json.Marshal(outbound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if outbound.Stream {
		h.streamCompletion(w, r, body)
		return
	}
	h.bufferedCompletion(w, r, body)
}

func (h *handlers) bufferedCompletion(w http.ResponseWriter, r *http.Request, body []byte) {
	start := time.Now()
	raw, err := h.client.ChatCompletions(r.Context(), body)
	h.metrics.ObserveUpstream("chat", time.Since(start))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	marker := ""
	if h.cfg.ShowReasoning {
		marker = relay.ReasoningMarker
	}
	out, err := upstream.Postprocess(raw, marker)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
	h.metrics.RecordRequest("chat", http.StatusOK)
}

// streamCompletion relays upstream bytes chunk-for-chunk. No reparsing,
// no post-processing; a broken pipe on either side just ends the copy.
func (h *handlers) streamCompletion(w http.ResponseWriter, r *http.Request, body []byte) {
	start := time.Now()
	resp, err := h.client.StreamChatCompletions(r.Context(), body)
	if err != nil {
		h.metrics.ObserveUpstream("chat_stream", time.Since(start))
		h.fail(w, r, err)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fl, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				break
			}
			if fl != nil {
				fl.Flush()
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				h.log.Warn().Err(rerr).Str("rid", middleware.RequestIDFrom(r.Context())).Msg("stream relay interrupted")
			}
			break
		}
	}
	h.metrics.ObserveUpstream("chat_stream", time.Since(start))
	h.metrics.RecordRequest("chat", http.StatusOK)
}

// fail maps the three error kinds onto client responses: upstream non-2xx
// keeps its status, everything else is a 500.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	rid := middleware.RequestIDFrom(r.Context())

	var apiErr *upstream.APIError
	switch {
	case errors.As(err, &apiErr):
		h.log.Warn().Err(err).Str("rid", rid).Int("status", apiErr.Status).Msg("upstream error")
		writeError(w, apiErr.Status, openai.ErrorDetail{
			Message: apiErr.Message,
			Type:    "upstream_error",
			Code:    apiErr.Code,
		})
		h.metrics.RecordRequest("chat", apiErr.Status)
	case errors.Is(err, upstream.ErrInvalidResponse):
		h.log.Error().Err(err).Str("rid", rid).Msg("invalid upstream response")
		writeError(w, http.StatusInternalServerError, openai.ErrorDetail{
			Message: "invalid response from upstream API",
			Type:    "invalid_response_error",
		})
		h.metrics.RecordRequest("chat", http.StatusInternalServerError)
	default:
		h.log.Error().Err(err).Str("rid", rid).Msg("upstream call failed")
		writeError(w, http.StatusInternalServerError, openai.ErrorDetail{
			Message: "failed to reach upstream API",
			Type:    "api_error",
		})
		h.metrics.RecordRequest("chat", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail openai.ErrorDetail) {
	writeJSON(w, status, openai.ErrorEnvelope{Error: detail})
}
