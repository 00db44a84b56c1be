// Proxy de generación de pósters: único proceso que conoce la credencial del proveedor de imágenes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	infraai "github.com/jhoicas/training-crm-api/internal/infrastructure/ai"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/metrics"
	"github.com/jhoicas/training-crm-api/internal/interfaces/proxy"
	"github.com/jhoicas/training-crm-api/pkg/config"
	"github.com/jhoicas/training-crm-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "poster-proxy",
	})

	provider := infraai.NewArkImageProvider(cfg.Proxy.ProviderURL, cfg.Proxy.ProviderAPIKey, cfg.Poster.Timeout)
	if !provider.Configured() {
		log.Warn().Msg("IMAGE_PROVIDER_API_KEY no configurada; /generate-poster responderá 500")
	}

	m := metrics.New()
	handler := proxy.NewHandler(provider, proxy.Options{
		HasCredential: provider.Configured(),
		DefaultModel:  cfg.Poster.DefaultModel,
		AllowedOrigin: cfg.Proxy.AllowedOrigin,
		Metrics:       m,
	}, log.Component("proxy"))

	srv := &http.Server{
		Addr: cfg.Proxy.Addr(),
		Handler: proxy.NewRouter(handler, proxy.RouterConfig{
			RatePerMinute:  cfg.Proxy.RatePerMinute,
			Production:     cfg.App.IsProduction(),
			Metrics:        m.Middleware,
			MetricsHandler: m.Handler(),
			Logger:         log.Component("proxy"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// El proveedor puede tardar más de un minuto en generar la imagen.
		WriteTimeout: cfg.Poster.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("poster-proxy escuchando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	log.Info().Msg("poster-proxy detenido")
}
