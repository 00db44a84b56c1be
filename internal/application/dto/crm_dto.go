package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerResponse cliente en listados.
type CustomerResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Company         string          `json:"company,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Email           string          `json:"email,omitempty"`
	Position        string          `json:"position,omitempty"`
	Location        string          `json:"location,omitempty"`
	SalespersonName string          `json:"salesperson_name,omitempty"`
	TrainingName    string          `json:"training_name,omitempty"`
	TrainingDate    string          `json:"training_date,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Paid            bool            `json:"paid"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CustomerListQuery filtros del listado de clientes.
type CustomerListQuery struct {
	Search string `query:"q" validate:"omitempty,max=100"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// CustomerListResponse página de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ParticipantResponse participante de una sesión.
type ParticipantResponse struct {
	ID              string          `json:"id"`
	TrainingID      string          `json:"training_id"`
	Name            string          `json:"name"`
	Company         string          `json:"company,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	SalespersonName string          `json:"salesperson_name,omitempty"`
	Paid            bool            `json:"paid"`
	Amount          decimal.Decimal `json:"amount"`
	Notes           string          `json:"notes,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UpdateParticipantRequest cambios parciales; los campos nil no se modifican.
type UpdateParticipantRequest struct {
	Name            *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Company         *string          `json:"company" validate:"omitempty,max=200"`
	Phone           *string          `json:"phone" validate:"omitempty,max=20"`
	SalespersonName *string          `json:"salesperson_name" validate:"omitempty,max=100"`
	Paid            *bool            `json:"paid"`
	Amount          *decimal.Decimal `json:"amount"`
	Notes           *string          `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateParticipantResponse participante resultante y campos modificados.
type UpdateParticipantResponse struct {
	Participant   ParticipantResponse `json:"participant"`
	ChangedFields []string            `json:"changed_fields"`
}

// GeneratePosterRequest petición de póster. El rango de dimensiones lo valida el proxy.
type GeneratePosterRequest struct {
	Prompt    string `json:"prompt" validate:"required"`
	Model     string `json:"model" validate:"omitempty,max=100"`
	Width     int    `json:"width" validate:"omitempty,min=0"`
	Height    int    `json:"height" validate:"omitempty,min=0"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	Watermark bool   `json:"watermark"`
}

// PosterPromptRequest datos para componer el prompt. Con TrainingID se leen de la base.
type PosterPromptRequest struct {
	TrainingID string `json:"training_id" validate:"omitempty,uuid"`
	Name       string `json:"name" validate:"required_without=TrainingID"`
	StartDate  string `json:"start_date" validate:"required_without=TrainingID"`
	Location   string `json:"location" validate:"required_without=TrainingID"`
	Presenter  string `json:"presenter"`
}

// PosterPromptResponse prompt generado.
type PosterPromptResponse struct {
	Prompt string `json:"prompt"`
}

// AuditLogQuery filtros y paginación de la bitácora. Fechas YYYY-MM-DD inclusivas.
type AuditLogQuery struct {
	UserID       string `query:"user_id"`
	ResourceType string `query:"resource_type"`
	Action       string `query:"action"`
	From         string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Page         int    `query:"page" validate:"omitempty,min=1"`
	PageSize     int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}
