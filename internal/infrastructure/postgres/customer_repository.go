package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// List clientes filtrados, más recientes primero.
func (r *CustomerRepo) List(ctx context.Context, f repository.CustomerFilter, limit, offset int) ([]*entity.Customer, error) {
	where, args := customerWhere(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, name, COALESCE(company, ''), COALESCE(phone, ''), COALESCE(email, ''),
			COALESCE(position, ''), COALESCE(location, ''), COALESCE(salesperson_name, ''),
			COALESCE(training_name, ''), COALESCE(training_date::text, ''),
			COALESCE(amount, 0), COALESCE(paid, false), COALESCE(notes, ''), created_at, updated_at
		FROM customers %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		var c entity.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Phone, &c.Email,
			&c.Position, &c.Location, &c.SalespersonName,
			&c.TrainingName, &c.TrainingDate,
			&c.Amount, &c.Paid, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Count total de clientes que cumplen el filtro.
func (r *CustomerRepo) Count(ctx context.Context, f repository.CustomerFilter) (int, error) {
	where, args := customerWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM customers `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

func customerWhere(f repository.CustomerFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.SalespersonName); s != "" {
		args = append(args, s)
		conds = append(conds, fmt.Sprintf("salesperson_name = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%[1]d OR company ILIKE $%[1]d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
