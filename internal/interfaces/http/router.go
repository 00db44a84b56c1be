package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/auth"
	"github.com/jhoicas/training-crm-api/internal/application/export"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/application/poster"
	"github.com/jhoicas/training-crm-api/internal/application/usecase"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	Sessions     *auth.SessionService
	UserUC       *usecase.UserUseCase
	PermissionUC *usecase.PermissionUseCase
	CustomerUC   *usecase.CustomerUseCase
	TrainingUC   *usecase.TrainingUseCase
	Importer     *importer.Service
	Exporter     *export.Service
	Audit        *audit.Service
	Poster       *poster.Service
	Jobs         jobInspector   // nil sin Redis
	Metrics      importRecorder // nil sin métricas
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas: Bearer Token + sesión con permisos vigentes.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), SessionMiddleware(deps.Sessions))
	protected.Get("/auth/me", authHandler.Me)

	// Usuarios y permisos
	userHandler := NewUserHandler(deps.UserUC)
	permHandler := NewPermissionHandler(deps.PermissionUC)
	protected.Get("/permissions/catalog", RequirePermission(permission.SystemPermissionManage), permHandler.Catalog)
	users := protected.Group("/users")
	users.Get("/", RequirePermission(permission.SystemUserManage), userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Post("/:id/deactivate", RequirePermission(permission.SystemUserManage), userHandler.Deactivate)
	users.Get("/:id/permissions", RequirePermission(permission.SystemPermissionManage), permHandler.Get)
	users.Put("/:id/permissions", RequirePermission(permission.SystemPermissionManage), permHandler.Set)

	// Clientes
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	protected.Get("/customers", RequirePermission(permission.CustomerView), customerHandler.List)

	// Capacitaciones y participantes
	trainingHandler := NewTrainingHandler(deps.TrainingUC)
	exportHandler := NewExportHandler(deps.Exporter)
	trainings := protected.Group("/trainings")
	trainings.Get("/:id/participants", RequirePermission(permission.TrainingView), trainingHandler.ListParticipants)
	trainings.Get("/:id/attendance", RequirePermission(permission.TrainingExport, permission.DataExport), exportHandler.TrainingAttendance)
	protected.Patch("/participants/:id", RequirePermission(permission.TrainingParticipantManage), trainingHandler.UpdateParticipant)

	// Importación
	importHandler := NewImportHandler(deps.Importer, deps.Jobs, deps.Metrics)
	imports := protected.Group("/import", RequirePermission(permission.DataImport))
	imports.Get("/jobs/:id", importHandler.JobStatus)
	imports.Post("/:data_type", importHandler.Import)

	// Exportación
	exports := protected.Group("/export")
	exports.Get("/templates/:data_type", RequirePermission(permission.DataDownloadTemplate), exportHandler.Template)
	exports.Post("/attendance", RequirePermission(permission.TrainingExport, permission.DataExport), exportHandler.Attendance)
	exports.Get("/:data_type", exportHandler.Data)

	// Auditoría
	auditHandler := NewAuditHandler(deps.Audit)
	protected.Get("/audit-logs", RequirePermission(permission.SystemAuditView), auditHandler.List)

	// Pósters
	posterHandler := NewPosterHandler(deps.Poster)
	posters := protected.Group("/posters")
	posters.Post("/", RequirePermission(permission.PosterGenerate), posterHandler.Generate)
	posters.Post("/prompt", RequirePermission(permission.PosterGenerate, permission.PosterView), posterHandler.Prompt)
}
