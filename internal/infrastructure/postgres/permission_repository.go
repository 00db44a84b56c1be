package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

var _ repository.PermissionRepository = (*PermissionRepo)(nil)

// PermissionRepo capacidades por usuario (tabla permissions).
type PermissionRepo struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

// NewPermissionRepository construye el adaptador.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepo {
	return &PermissionRepo{pool: pool, tx: NewTxRunner(pool)}
}

// ListByUser capacidades concedidas, ordenadas.
func (r *PermissionRepo) ListByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_name FROM permissions WHERE user_id = $1 ORDER BY permission_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ReplaceForUser borra e inserta el conjunto completo en una sola transacción.
func (r *PermissionRepo) ReplaceForUser(ctx context.Context, userID string, capabilities []string, grantedBy string) error {
	return r.tx.Run(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `DELETE FROM permissions WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete permissions: %w", err)
		}
		if len(capabilities) == 0 {
			return nil
		}
		_, err := q.Exec(ctx, `
			INSERT INTO permissions (user_id, permission_name, granted_by, granted_at)
			SELECT $1, unnest($2::text[]), NULLIF($3, '')::uuid, now()`,
			userID, capabilities, grantedBy)
		if err != nil {
			return fmt.Errorf("insert permissions: %w", err)
		}
		return nil
	})
}
