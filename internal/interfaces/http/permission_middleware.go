package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

// sessionLoader contrato mínimo para construir la sesión de la petición.
// Lo implementa *auth.SessionService.
type sessionLoader interface {
	LoadSession(ctx context.Context, userID string) (permission.Session, error)
}

// SessionMiddleware carga perfil y permisos vigentes del usuario del token.
// Debe usarse DESPUÉS de AuthMiddleware. Los permisos se leen en cada petición,
// así un cambio del administrador aplica sin volver a iniciar sesión.
//
// Comportamiento:
//   - 401 si el perfil ya no existe.
//   - 403 si el usuario está inactivo.
//   - 503 si el backend no responde.
func SessionMiddleware(loader sessionLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "user_id no encontrado en el token"})
		}
		sess, err := loader.LoadSession(c.UserContext(), userID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no encontrado"})
			case errors.Is(err, domain.ErrForbidden):
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cuenta inactiva"})
			default:
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "SESSION_UNAVAILABLE", Message: "no se pudo cargar la sesión, intente más tarde"})
			}
		}
		c.Locals(LocalSession, sess)
		return c.Next()
	}
}

// GetSession devuelve la sesión cargada por SessionMiddleware, o una sesión anónima.
func GetSession(c *fiber.Ctx) permission.Session {
	if sess, ok := c.Locals(LocalSession).(permission.Session); ok {
		return sess
	}
	return permission.Anonymous()
}

// RequirePermission deja pasar si la sesión tiene al menos una de las capacidades.
func RequirePermission(caps ...permission.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := GetSession(c)
		if !sess.IsAuthenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión no cargada"})
		}
		if !sess.HasAnyPermission(caps...) {
			return forbidden(c, caps)
		}
		return c.Next()
	}
}

// RequireAllPermissions exige todas las capacidades indicadas.
func RequireAllPermissions(caps ...permission.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := GetSession(c)
		if !sess.IsAuthenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión no cargada"})
		}
		if missing := sess.Missing(caps...); len(missing) > 0 {
			return forbidden(c, missing)
		}
		return c.Next()
	}
}

func forbidden(c *fiber.Ctx, caps []permission.Capability) error {
	names := make([]string, len(caps))
	for i, cp := range caps {
		names[i] = string(cp)
	}
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Code:    "FORBIDDEN",
		Message: "permiso requerido: " + strings.Join(names, ", "),
	})
}
