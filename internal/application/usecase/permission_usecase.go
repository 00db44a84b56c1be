package usecase

import (
	"context"
	"sort"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// PermissionUseCase administración de capacidades por usuario.
type PermissionUseCase struct {
	permissions repository.PermissionRepository
	profiles    repository.ProfileRepository
	auditor     Auditor
}

// NewPermissionUseCase construye el caso de uso.
func NewPermissionUseCase(permissions repository.PermissionRepository, profiles repository.ProfileRepository, auditor Auditor) *PermissionUseCase {
	return &PermissionUseCase{permissions: permissions, profiles: profiles, auditor: auditor}
}

// Catalog catálogo agrupado en el orden de presentación.
func (uc *PermissionUseCase) Catalog() []dto.CatalogGroupResponse {
	grouped := permission.Grouped()
	out := make([]dto.CatalogGroupResponse, 0, len(grouped))
	for _, g := range permission.Groups() {
		item := dto.CatalogGroupResponse{Group: g}
		for _, d := range grouped[g] {
			item.Capabilities = append(item.Capabilities, dto.CapabilityResponse{Capability: string(d.Capability), Label: d.Label})
		}
		out = append(out, item)
	}
	return out
}

// GetUserPermissions capacidades concedidas a userID. Requiere system_permission_manage.
func (uc *PermissionUseCase) GetUserPermissions(ctx context.Context, sess permission.Session, userID string) (*dto.PermissionsResponse, error) {
	if !sess.HasPermission(permission.SystemPermissionManage) {
		return nil, domain.ErrForbidden
	}
	if err := uc.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	caps, err := uc.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, &domain.BackendError{Op: "leer permisos", Message: "读取权限失败", Err: err}
	}
	sort.Strings(caps)
	return &dto.PermissionsResponse{UserID: userID, Capabilities: nonNil(caps)}, nil
}

// SetUserPermissions reemplaza el conjunto completo. Cualquier capacidad fuera del catálogo
// rechaza la petición entera con domain.ErrUnknownCapability.
func (uc *PermissionUseCase) SetUserPermissions(ctx context.Context, sess permission.Session, userID string, raw []string) (*dto.PermissionsResponse, error) {
	if !sess.HasPermission(permission.SystemPermissionManage) {
		return nil, domain.ErrForbidden
	}
	caps, err := permission.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := uc.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	before, err := uc.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, &domain.BackendError{Op: "leer permisos", Message: "读取权限失败", Err: err}
	}
	after := make([]string, len(caps))
	for i, c := range caps {
		after[i] = string(c)
	}
	if err := uc.permissions.ReplaceForUser(ctx, userID, after, sess.UserID); err != nil {
		return nil, &domain.BackendError{Op: "guardar permisos", Message: "保存权限失败", Err: err}
	}
	sort.Strings(before)
	uc.auditor.LogAction(ctx, sess, audit.ActionInput{
		Action:       audit.ActionPermissionUpdate,
		ResourceType: audit.ResourcePermission,
		ResourceID:   userID,
		Details: map[string]any{
			"before": nonNil(before),
			"after":  after,
		},
	})
	return &dto.PermissionsResponse{UserID: userID, Capabilities: after}, nil
}

func (uc *PermissionUseCase) ensureUser(ctx context.Context, userID string) error {
	u, err := uc.profiles.GetByID(ctx, userID)
	if err != nil {
		return &domain.BackendError{Op: "leer usuario", Message: "读取用户失败", Err: err}
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
