package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/auth"
	"github.com/jhoicas/training-crm-api/internal/application/export"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/application/poster"
	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/application/provisioning"
	"github.com/jhoicas/training-crm-api/internal/application/usecase"
	infraai "github.com/jhoicas/training-crm-api/internal/infrastructure/ai"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/training-crm-api/internal/infrastructure/pdf"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/postgres"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/queue"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/spreadsheet"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/supabase"
	httpRouter "github.com/jhoicas/training-crm-api/internal/interfaces/http"
	"github.com/jhoicas/training-crm-api/pkg/config"
	"github.com/jhoicas/training-crm-api/pkg/logger"
)

// identity proveedor de identidades que además autentica el login.
type identity interface {
	ports.IdentityProvider
	ports.Authenticator
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("identity", cfg.Identity.Provider).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m := metrics.New()

	profileRepo := postgres.NewProfileRepository(pool)
	permissionRepo := postgres.NewPermissionRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	trainingRepo := postgres.NewTrainingRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	recordStore := postgres.NewRecordStore(pool)

	var idp identity
	switch cfg.Identity.Provider {
	case "local":
		idp = postgres.NewLocalIdentityStore(pool)
	default:
		if cfg.Supabase.URL == "" || cfg.Supabase.ServiceRoleKey == "" {
			log.Fatal().Msg("SUPABASE_URL y SUPABASE_SERVICE_ROLE_KEY son obligatorios con IDENTITY_PROVIDER=supabase")
		}
		idp = supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.AnonKey)
	}

	auditSvc := audit.NewService(auditRepo, profileRepo, log.Component("audit"))
	sessions := auth.NewSessionService(profileRepo, permissionRepo, log.Component("session"))
	authUC := auth.NewAuthUseCase(idp, sessions, auditSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))

	provCfg := provisioning.Config{
		DefaultPassword: cfg.Provisioning.DefaultPassword,
		SettleDelay:     cfg.Provisioning.SettleDelay,
		PauseEvery:      cfg.Provisioning.PauseEvery,
		Pause:           cfg.Provisioning.Pause,
	}
	provisioner := provisioning.NewService(idp, profileRepo, provCfg, log.Component("provisioning"),
		provisioning.WithRecorder(m),
		provisioning.WithPermissions(permissionRepo),
	)

	// Cola opcional: sin Redis la creación de cuentas es sólo síncrona.
	deps := httpRouter.RouterDeps{Metrics: m}
	var enqueuer importer.JobEnqueuer
	var jobs *queue.Client
	if cfg.Redis.Addr != "" {
		jobs = queue.NewClient(cfg.Redis, queue.WithProvisioningTiming(provCfg))
		defer jobs.Close()
		if err := jobs.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible; las altas asíncronas fallarán hasta que responda")
		}
		enqueuer = jobs
		deps.Jobs = jobs
	}

	importSvc := importer.NewService(
		importer.NewParser(spreadsheet.NewReader()),
		recordStore, provisioner, enqueuer, auditSvc, log.Component("importer"),
	)
	exportSvc := export.NewService(
		spreadsheet.NewWriter(), infrapdf.NewMarotoPDFGenerator(cfg.PDF.FontPath),
		recordStore, trainingRepo, auditSvc,
	)
	posterSvc := poster.NewService(
		infraai.NewPosterProxyClient(cfg.Poster.ProxyURL, cfg.Poster.Timeout),
		trainingRepo, auditSvc, cfg.Poster.DefaultModel, log.Component("poster"),
	)

	deps.AuthUC = authUC
	deps.Sessions = sessions
	deps.UserUC = usecase.NewUserUseCase(profileRepo, permissionRepo, auditSvc)
	deps.PermissionUC = usecase.NewPermissionUseCase(permissionRepo, profileRepo, auditSvc)
	deps.CustomerUC = usecase.NewCustomerUseCase(customerRepo)
	deps.TrainingUC = usecase.NewTrainingUseCase(trainingRepo, auditSvc)
	deps.Importer = importSvc
	deps.Exporter = exportSvc
	deps.Audit = auditSvc
	deps.Poster = posterSvc
	deps.JWTSecret = cfg.JWT.Secret

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    importer.MaxUploadSize + 1<<20,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 120,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(m.FiberMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Training CRM API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok", "service": cfg.App.Name}
		if err := pool.Ping(c.UserContext()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
		if jobs != nil {
			if err := jobs.Ping(c.UserContext()); err != nil {
				status["status"] = "degraded"
				status["queue"] = err.Error()
			}
		}
		return c.JSON(status)
	})
	app.Get("/metrics", m.FiberHandler())

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
