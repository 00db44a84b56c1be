package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo bitácora en audit_logs. Sólo INSERT y SELECT.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Insert agrega una entrada.
func (r *AuditLogRepo) Insert(ctx context.Context, l *entity.AuditLog) error {
	details, err := json.Marshal(l.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, created_at, user_id, user_name, action, resource_type, resource_id,
			details, status, error_message)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, NULLIF($7, ''), $8::jsonb, $9, NULLIF($10, ''))`
	_, err = r.q.Exec(ctx, query,
		l.ID, l.CreatedAt, l.ActorID, l.ActorName, l.Action, l.ResourceType, l.ResourceID,
		string(details), l.Status, l.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List entradas filtradas, más recientes primero.
func (r *AuditLogRepo) List(ctx context.Context, f repository.AuditFilter, limit, offset int) ([]*entity.AuditLog, error) {
	where, args := auditWhere(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, created_at, COALESCE(user_id::text, ''), COALESCE(user_name, ''), action,
			COALESCE(resource_type, ''), COALESCE(resource_id, ''), COALESCE(details, '{}'::jsonb),
			status, COALESCE(error_message, '')
		FROM audit_logs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditLog
	for rows.Next() {
		var (
			l   entity.AuditLog
			raw []byte
		)
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.ActorID, &l.ActorName, &l.Action,
			&l.ResourceType, &l.ResourceID, &raw, &l.Status, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &l.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// Count total de entradas que cumplen el filtro.
func (r *AuditLogRepo) Count(ctx context.Context, f repository.AuditFilter) (int, error) {
	where, args := auditWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM audit_logs `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return n, nil
}

// auditWhere arma la cláusula WHERE con parámetros posicionales.
func auditWhere(f repository.AuditFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorID != "" {
		add("user_id::text = $%d", f.ActorID)
	}
	if f.ResourceType != "" {
		add("resource_type = $%d", f.ResourceType)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
