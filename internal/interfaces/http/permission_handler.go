package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/usecase"
)

// PermissionHandler catálogo y asignación de capacidades.
type PermissionHandler struct {
	uc *usecase.PermissionUseCase
}

// NewPermissionHandler construye el handler.
func NewPermissionHandler(uc *usecase.PermissionUseCase) *PermissionHandler {
	return &PermissionHandler{uc: uc}
}

// Catalog godoc
// @Summary      Catálogo de permisos agrupado
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  dto.CatalogGroupResponse
// @Router       /api/permissions/catalog [get]
func (h *PermissionHandler) Catalog(c *fiber.Ctx) error {
	return c.JSON(h.uc.Catalog())
}

// Get GET /api/users/:id/permissions
func (h *PermissionHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetUserPermissions(c.UserContext(), GetSession(c), param(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Set godoc
// @Summary      Reemplazar permisos de un usuario
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "ID del usuario"
// @Param        body  body  dto.SetPermissionsRequest  true  "conjunto completo"
// @Success      200  {object}  dto.PermissionsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/permissions [put]
func (h *PermissionHandler) Set(c *fiber.Ctx) error {
	var in dto.SetPermissionsRequest
	if done, err := parseBody(c, &in); done {
		return err
	}
	out, err := h.uc.SetUserPermissions(c.UserContext(), GetSession(c), param(c, "id"), in.Capabilities)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
