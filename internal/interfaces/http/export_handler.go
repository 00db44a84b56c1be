package http

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/export"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
)

// Modos de la hoja de firmas.
const (
	attendanceModeAll         = "all"
	attendanceModeSalesperson = "salesperson"
	attendanceModePDF         = "pdf"
)

// ExportHandler plantillas, exportación de datos y hojas de firmas.
type ExportHandler struct {
	svc *export.Service
}

// NewExportHandler construye el handler.
func NewExportHandler(svc *export.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// Template godoc
// @Summary      Plantilla de importación
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        data_type  path  string  true  "customers | experts | salespersons | trainings"
// @Success      200
// @Router       /api/export/templates/{data_type} [get]
func (h *ExportHandler) Template(c *fiber.Ctx) error {
	dt, err := importer.ParseDataType(param(c, "data_type"))
	if err != nil {
		return respondError(c, err)
	}
	file, err := h.svc.ExportTemplate(dt)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, file)
}

// Data godoc
// @Summary      Exportar datos de un tipo
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        data_type  path  string  true  "customers | experts | salespersons | trainings"
// @Success      200
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/export/{data_type} [get]
func (h *ExportHandler) Data(c *fiber.Ctx) error {
	dt, err := importer.ParseDataType(param(c, "data_type"))
	if err != nil {
		return respondError(c, err)
	}
	file, err := h.svc.ExportDataType(c.UserContext(), GetSession(c), dt)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, file)
}

// TrainingAttendance godoc
// @Summary      Hoja de firmas de una sesión
// @Tags         export
// @Security     BearerAuth
// @Param        id    path   string  true   "ID de la sesión"
// @Param        mode  query  string  false  "all | salesperson | pdf"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/trainings/{id}/attendance [get]
func (h *ExportHandler) TrainingAttendance(c *fiber.Ctx) error {
	id := param(c, "id")
	cfg, err := h.svc.AttendanceForTraining(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	file, err := h.attendance(*cfg, c.Query("mode", attendanceModeAll))
	if err != nil {
		return respondError(c, err)
	}
	h.svc.AuditAttendance(c.UserContext(), GetSession(c), id, file)
	return sendFile(c, file)
}

// Attendance POST /api/export/attendance?mode=all|salesperson|pdf con la configuración en el cuerpo.
func (h *ExportHandler) Attendance(c *fiber.Ctx) error {
	var cfg export.AttendanceConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if strings.TrimSpace(cfg.CourseName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "course_name es requerido"})
	}
	file, err := h.attendance(cfg, c.Query("mode", attendanceModeAll))
	if err != nil {
		return respondError(c, err)
	}
	h.svc.AuditAttendance(c.UserContext(), GetSession(c), "", file)
	return sendFile(c, file)
}

func (h *ExportHandler) attendance(cfg export.AttendanceConfig, mode string) (*export.File, error) {
	switch mode {
	case attendanceModeSalesperson:
		return h.svc.ExportBySalesperson(cfg)
	case attendanceModePDF:
		return h.svc.ExportAllPDF(cfg)
	default:
		return h.svc.ExportAll(cfg)
	}
}

// sendFile envía el archivo como descarga; el nombre va codificado para admitir caracteres chinos.
func sendFile(c *fiber.Ctx, f *export.File) error {
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(f.Name))
	return c.Send(f.Data)
}
