package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/dto"
)

// AuditHandler consulta de la bitácora (requiere system_audit_view).
type AuditHandler struct {
	svc *audit.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List godoc
// @Summary      Bitácora de auditoría
// @Description  Más recientes primero. from/to en YYYY-MM-DD, ambos inclusivos.
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        user_id        query  string  false  "actor"
// @Param        resource_type  query  string  false  "tipo de recurso"
// @Param        action         query  string  false  "acción"
// @Param        from           query  string  false  "desde"
// @Param        to             query  string  false  "hasta"
// @Param        page           query  int     false  "página (1-based)"
// @Param        page_size      query  int     false  "máximo 100"
// @Success      200  {object}  audit.LogPage
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit-logs [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.AuditLogQuery
	if done, err := parseQuery(c, &q); done {
		return err
	}
	f := audit.Filters{ActorID: q.UserID, ResourceType: q.ResourceType, Action: q.Action}
	if q.From != "" {
		from, _ := time.ParseInLocation(time.DateOnly, q.From, time.Local)
		f.From = &from
	}
	if q.To != "" {
		to, _ := time.ParseInLocation(time.DateOnly, q.To, time.Local)
		// Fin del día inclusivo.
		to = to.Add(24*time.Hour - time.Nanosecond)
		f.To = &to
	}
	out, err := h.svc.GetAuditLogs(c.UserContext(), f, audit.Page{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
