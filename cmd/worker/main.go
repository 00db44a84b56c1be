// Worker de altas masivas: consume la cola provisioning de asynq con concurrencia 1.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/application/provisioning"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/metrics"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/postgres"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/queue"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/supabase"
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
		Service: "worker",
	})
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m := metrics.New()
	profileRepo := postgres.NewProfileRepository(pool)
	permissionRepo := postgres.NewPermissionRepository(pool)

	var idp ports.IdentityProvider
	if cfg.Identity.Provider == "local" {
		idp = postgres.NewLocalIdentityStore(pool)
	} else {
		idp = supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.AnonKey)
	}

	provisioner := provisioning.NewService(idp, profileRepo, provisioning.Config{
		DefaultPassword: cfg.Provisioning.DefaultPassword,
		SettleDelay:     cfg.Provisioning.SettleDelay,
		PauseEvery:      cfg.Provisioning.PauseEvery,
		Pause:           cfg.Provisioning.Pause,
	}, log.Component("provisioning"),
		provisioning.WithRecorder(m),
		provisioning.WithPermissions(permissionRepo),
	)
	auditSvc := audit.NewService(postgres.NewAuditLogRepository(pool), profileRepo, log.Component("audit"))

	worker, err := queue.NewWorker(queue.WorkerConfig{
		RedisOpts: queue.RedisOpt(cfg.Redis),
		Provision: queue.NewProvisionHandler(provisioner, auditSvc, log.Component("queue")),
		Logger:    log.Component("asynq"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear worker")
	}

	var metricsSrv *http.Server
	if cfg.Worker.MetricsAddr != "" {
		metricsSrv = &http.Server{
			Addr:              cfg.Worker.MetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("servidor de métricas finalizado")
			}
		}()
	}

	log.Info().Str("redis", cfg.Redis.Addr).Str("queue", queue.QueueProvisioning).Msg("worker iniciado")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Info().Msg("worker detenido")
}
