package repository

import (
	"context"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
)

// ProfileRepository puerto de lectura/escritura de user_profiles.
// Las filas las crea el trigger del backend al registrar la identidad; aquí sólo se consultan
// y se actualizan.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	List(ctx context.Context, role string, limit, offset int) ([]*entity.UserProfile, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PermissionRepository capacidades concedidas por usuario (tabla permissions).
type PermissionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]string, error)
	// ReplaceForUser sustituye el conjunto completo de forma atómica.
	ReplaceForUser(ctx context.Context, userID string, capabilities []string, grantedBy string) error
}
