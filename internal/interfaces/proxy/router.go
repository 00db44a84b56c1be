package proxy

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"
)

// RouterConfig middleware del servidor proxy.
type RouterConfig struct {
	RatePerMinute int
	Production    bool
	// Metrics middleware de métricas por ruta; nil lo omite.
	Metrics func(http.Handler) http.Handler
	// MetricsHandler expone /metrics; nil lo omite.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter monta el endpoint con cabeceras de seguridad y límite de peticiones por IP.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Production,
	})
	rate := cfg.RatePerMinute
	if rate <= 0 {
		rate = 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if err := secureMiddleware.Process(w, req); err != nil {
				cfg.Logger.Warn().Err(err).Msg("proxy: petición bloqueada por cabeceras de seguridad")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics)
	}

	r.Get("/health", h.Health)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(rate, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		// Todos los métodos llegan al handler: OPTIONS responde el preflight y el resto 405.
		r.HandleFunc("/generate-poster", h.GeneratePoster)
	})
	return r
}
