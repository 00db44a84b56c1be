package repository

import (
	"context"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
)

// CustomerFilter filtros de listado. SalespersonName vacío = todos.
type CustomerFilter struct {
	SalespersonName string
	Search          string // coincide con nombre o empresa
}

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	List(ctx context.Context, f CustomerFilter, limit, offset int) ([]*entity.Customer, error)
	Count(ctx context.Context, f CustomerFilter) (int, error)
}
