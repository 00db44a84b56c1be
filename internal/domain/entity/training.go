package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrainingSession sesión de capacitación (training_sessions).
type TrainingSession struct {
	ID               string
	Name             string
	StartDate        string // YYYY-MM-DD
	EndDate          string // opcional
	StartTime        string // HH:MM
	EndTime          string
	Location         string
	ExpertName       string
	ParticipantCount int
	Capacity         int
	Price            decimal.Decimal
	Type             string
	Online           bool
	Tags             []string
	Status           string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Participant inscrito en una sesión (training_participants).
type Participant struct {
	ID              string
	TrainingID      string
	Name            string
	Company         string
	Phone           string
	SalespersonName string
	Paid            bool
	Amount          decimal.Decimal
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot representación plana usada por la auditoría para comparar antes/después.
func (p *Participant) Snapshot() map[string]any {
	return map[string]any{
		"name":             p.Name,
		"company":          p.Company,
		"phone":            p.Phone,
		"salesperson_name": p.SalespersonName,
		"paid":             p.Paid,
		"amount":           p.Amount.String(),
		"notes":            p.Notes,
	}
}
