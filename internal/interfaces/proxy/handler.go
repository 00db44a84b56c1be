// Package proxy expone POST /generate-poster: recibe la petición del back end, adjunta la credencial
// del proveedor de imágenes que sólo vive en este proceso y reenvía la respuesta sin interpretarla.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/training-crm-api/internal/application/ports"
)

// Rango de dimensiones aceptado, en píxeles, ambos inclusivos.
const (
	MinDimension     = 512
	MaxDimension     = 2048
	DefaultDimension = 1024
)

// responseFormat formato pedido al proveedor.
const responseFormat = "url"

// statusRecorder cuenta las respuestas del proveedor. Lo implementa *metrics.Metrics.
type statusRecorder interface {
	PosterRequest(status int)
}

// Options configuración del handler.
type Options struct {
	// HasCredential false responde 500 sin llamar al proveedor.
	HasCredential bool
	DefaultModel  string
	AllowedOrigin string
	Metrics       statusRecorder
}

// Handler endpoint del proxy.
type Handler struct {
	provider ports.ImageProvider
	opts     Options
	log      zerolog.Logger
}

// NewHandler construye el handler.
func NewHandler(provider ports.ImageProvider, opts Options, log zerolog.Logger) *Handler {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	return &Handler{provider: provider, opts: opts, log: log}
}

type errorBody struct {
	Error string `json:"error"`
}

// GeneratePoster valida la petición, llama al proveedor y devuelve su estado y cuerpo.
func (h *Handler) GeneratePoster(w http.ResponseWriter, r *http.Request) {
	h.cors(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	var in ports.PosterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(in.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "prompt is required"})
		return
	}
	if in.Width == 0 {
		in.Width = DefaultDimension
	}
	if in.Height == 0 {
		in.Height = DefaultDimension
	}
	if !inRange(in.Width) || !inRange(in.Height) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("width and height must be between %d and %d", MinDimension, MaxDimension),
		})
		return
	}
	if !h.opts.HasCredential {
		h.log.Error().Msg("proxy: credencial del proveedor no configurada")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "image provider API key is not configured"})
		return
	}

	model := in.Model
	if model == "" {
		model = h.opts.DefaultModel
	}
	status, body, err := h.provider.Generate(r.Context(), ports.ImageRequest{
		Model:          model,
		Prompt:         in.Prompt,
		Size:           fmt.Sprintf("%dx%d", in.Width, in.Height),
		Image:          in.ImageURL,
		Watermark:      in.Watermark,
		ResponseFormat: responseFormat,
	})
	if err != nil && status == 0 {
		h.log.Error().Err(err).Msg("proxy: proveedor inalcanzable")
		h.record(http.StatusBadGateway)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	h.record(status)
	if status < 200 || status > 299 {
		h.log.Warn().Int("status", status).Msg("proxy: el proveedor respondió con error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Health GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "credential": h.opts.HasCredential})
}

func (h *Handler) cors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.opts.AllowedOrigin)
	w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func (h *Handler) record(status int) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.PosterRequest(status)
	}
}

func inRange(v int) bool {
	return v >= MinDimension && v <= MaxDimension
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
