package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

const profileColumns = `
	id, email, COALESCE(name, ''), COALESCE(phone, ''), role,
	COALESCE(department, ''), COALESCE(position, ''), COALESCE(team, ''),
	COALESCE(title, ''), COALESCE(field, ''), status, created_at, updated_at`

// ProfileRepo implementación de ProfileRepository sobre user_profiles (usable con pool o tx).
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*entity.UserProfile, error) {
	var u entity.UserProfile
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role,
		&u.Department, &u.Position, &u.Team,
		&u.Title, &u.Field, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID obtiene un perfil por ID. nil si no existe.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	u, err := scanProfile(r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return u, nil
}

// GetByEmail obtiene un perfil por email, sin distinguir mayúsculas.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error) {
	u, err := scanProfile(r.q.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE lower(email) = lower($1) LIMIT 1`,
		strings.TrimSpace(email)))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return u, nil
}

// EmailExists indica si ya hay un perfil con ese email.
func (r *ProfileRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_profiles WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

// PhoneExists indica si ya hay un perfil con ese teléfono.
func (r *ProfileRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_profiles WHERE phone = $1)`,
		strings.TrimSpace(phone)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("phone exists: %w", err)
	}
	return exists, nil
}

// List lista perfiles, más recientes primero. role vacío = todos.
func (r *ProfileRepo) List(ctx context.Context, role string, limit, offset int) ([]*entity.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()
	var list []*entity.UserProfile
	for rows.Next() {
		u, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado (active/inactive). Los perfiles nunca se eliminan.
func (r *ProfileRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE user_profiles SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
