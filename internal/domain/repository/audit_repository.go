package repository

import (
	"context"
	"time"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
)

// AuditFilter filtros por igualdad y rango de fechas inclusivo. Campos vacíos no filtran.
type AuditFilter struct {
	ActorID      string
	ResourceType string
	Action       string
	From         *time.Time
	To           *time.Time
}

// AuditLogRepository bitácora de sólo inserción.
type AuditLogRepository interface {
	Insert(ctx context.Context, log *entity.AuditLog) error
	// List devuelve las entradas más recientes primero.
	List(ctx context.Context, f AuditFilter, limit, offset int) ([]*entity.AuditLog, error)
	Count(ctx context.Context, f AuditFilter) (int, error)
}
