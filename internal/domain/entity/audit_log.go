package entity

import "time"

// Estados de una entrada de auditoría.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// AuditLog entrada de la bitácora. Sólo se insertan filas; nunca se modifican.
type AuditLog struct {
	ID           string
	CreatedAt    time.Time
	ActorID      string
	ActorName    string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	Status       string
	ErrorMessage string
}
