package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/queue"
)

// importRecorder métricas de filas importadas.
type importRecorder interface {
	ImportedRows(dataType string, n int)
}

// jobInspector consulta el estado de un alta asíncrona.
type jobInspector interface {
	JobStatus(ctx context.Context, id string) (*queue.JobStatus, error)
}

// ImportHandler importación de archivos tabulares.
type ImportHandler struct {
	svc     *importer.Service
	jobs    jobInspector
	metrics importRecorder
}

// NewImportHandler construye el handler. jobs y metrics pueden ser nil.
func NewImportHandler(svc *importer.Service, jobs jobInspector, metrics importRecorder) *ImportHandler {
	return &ImportHandler{svc: svc, jobs: jobs, metrics: metrics}
}

// Import godoc
// @Summary      Importar archivo (.xlsx, .xls, .csv)
// @Description  Valida fila a fila, escribe las válidas y opcionalmente crea cuentas de acceso.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        data_type        path      string  true   "customers | experts | salespersons | trainings"
// @Param        file             formData  file    true   "archivo de hasta 10MB"
// @Param        create_accounts  formData  bool    false  "crear cuentas para expertos y vendedores"
// @Param        async            formData  bool    false  "encolar el alta de cuentas"
// @Success      200  {object}  importer.Report
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/import/{data_type} [post]
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	dt, err := importer.ParseDataType(param(c, "data_type"))
	if err != nil {
		return respondError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo file requerido"})
	}
	if err := importer.ValidateUpload(fh.Filename, fh.Size); err != nil {
		return respondError(c, err)
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo leer el archivo"})
	}
	defer f.Close()

	opts := importer.Options{
		CreateAccounts: formBool(c, "create_accounts"),
		Async:          formBool(c, "async"),
	}
	report, err := h.svc.Import(c.UserContext(), GetSession(c), importer.Upload{Name: fh.Filename, Size: fh.Size, Reader: f}, dt, opts)
	if err != nil {
		return respondError(c, err)
	}
	if h.metrics != nil {
		h.metrics.ImportedRows(string(dt), report.Imported)
	}
	return c.JSON(report)
}

// JobStatus godoc
// @Summary      Estado de un alta de cuentas asíncrona
// @Tags         import
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del trabajo"
// @Success      200  {object}  queue.JobStatus
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/import/jobs/{id} [get]
func (h *ImportHandler) JobStatus(c *fiber.Ctx) error {
	if h.jobs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "QUEUE_DISABLED", Message: "cola de trabajos no configurada"})
	}
	st, err := h.jobs.JobStatus(c.UserContext(), param(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

func formBool(c *fiber.Ctx, key string) bool {
	b, _ := strconv.ParseBool(c.FormValue(key))
	return b
}
