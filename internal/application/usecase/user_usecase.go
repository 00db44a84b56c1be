package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/auth"
	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// Auditor registra acciones administrativas.
type Auditor interface {
	LogAction(ctx context.Context, sess permission.Session, in audit.ActionInput) bool
}

// UserUseCase gestión de usuarios: listado y baja lógica. Los usuarios nunca se eliminan.
type UserUseCase struct {
	profiles    repository.ProfileRepository
	permissions repository.PermissionRepository
	auditor     Auditor
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(profiles repository.ProfileRepository, permissions repository.PermissionRepository, auditor Auditor) *UserUseCase {
	return &UserUseCase{profiles: profiles, permissions: permissions, auditor: auditor}
}

// List usuarios filtrados por rol. Requiere system_user_manage.
func (uc *UserUseCase) List(ctx context.Context, sess permission.Session, q dto.UserListQuery) (*dto.UserListResponse, error) {
	if !sess.HasPermission(permission.SystemUserManage) {
		return nil, domain.ErrForbidden
	}
	page := dto.NewPageRequest(q.Limit, q.Offset)
	list, err := uc.profiles.List(ctx, q.Role, page.Limit, page.Offset)
	if err != nil {
		return nil, &domain.BackendError{Op: "listar usuarios", Message: "读取用户失败", Err: err}
	}
	out := &dto.UserListResponse{
		Items: make([]dto.UserResponse, 0, len(list)),
		Page:  page.Response(-1),
	}
	for _, u := range list {
		out.Items = append(out.Items, auth.ToUserResponse(u))
	}
	return out, nil
}

// GetByID perfil con sus permisos. Requiere system_user_manage salvo para el propio usuario.
func (uc *UserUseCase) GetByID(ctx context.Context, sess permission.Session, id string) (*dto.UserResponse, error) {
	if id != sess.UserID && !sess.HasPermission(permission.SystemUserManage) {
		return nil, domain.ErrForbidden
	}
	u, err := uc.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.BackendError{Op: "leer usuario", Message: "读取用户失败", Err: err}
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	caps, err := uc.permissions.ListByUser(ctx, id)
	if err != nil {
		return nil, &domain.BackendError{Op: "leer permisos", Message: "读取权限失败", Err: err}
	}
	sort.Strings(caps)
	resp := auth.ToUserResponse(u)
	resp.Permissions = caps
	return &resp, nil
}

// Deactivate marca al usuario como inactivo. Un administrador no puede desactivarse a sí mismo.
func (uc *UserUseCase) Deactivate(ctx context.Context, sess permission.Session, id string) error {
	if !sess.HasPermission(permission.SystemUserManage) {
		return domain.ErrForbidden
	}
	if id == sess.UserID {
		return &domain.ValidationError{Field: "id", Message: "不能停用当前登录账号"}
	}
	if err := uc.profiles.UpdateStatus(ctx, id, entity.UserStatusInactive); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return &domain.BackendError{Op: "desactivar usuario", Message: "停用用户失败", Err: err}
	}
	uc.auditor.LogAction(ctx, sess, audit.ActionInput{
		Action:       audit.ActionUserDeactivate,
		ResourceType: audit.ResourceUser,
		ResourceID:   id,
	})
	return nil
}
