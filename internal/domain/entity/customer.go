package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer representa un cliente/prospecto seguido por un vendedor.
type Customer struct {
	ID              string
	Name            string
	Company         string
	Phone           string
	Email           string
	Position        string
	Location        string
	SalespersonName string
	TrainingName    string
	TrainingDate    string // YYYY-MM-DD
	Amount          decimal.Decimal
	Paid            bool
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
