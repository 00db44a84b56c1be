package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
)

var (
	_ ports.IdentityProvider = (*LocalIdentityStore)(nil)
	_ ports.Authenticator    = (*LocalIdentityStore)(nil)
)

// LocalIdentityStore proveedor de identidades sobre la propia base (tabla local_identities),
// para despliegues sin Supabase Auth. Crea también la fila de user_profiles que en Supabase
// inserta el trigger on_auth_user_created.
type LocalIdentityStore struct {
	tx   *TxRunner
	pool *pgxpool.Pool
	cost int
}

// NewLocalIdentityStore construye el proveedor.
func NewLocalIdentityStore(pool *pgxpool.Pool) *LocalIdentityStore {
	return &LocalIdentityStore{tx: NewTxRunner(pool), pool: pool, cost: bcrypt.DefaultCost}
}

// CreateUser hashea la contraseña con bcrypt y registra identidad y perfil en una transacción.
func (s *LocalIdentityStore) CreateUser(ctx context.Context, in ports.NewIdentity) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	id := uuid.NewString()
	email := strings.ToLower(strings.TrimSpace(in.Email))
	now := time.Now().UTC()
	role := in.Metadata.Role
	if role == "" {
		role = entity.RoleSalesperson
	}

	err = s.tx.Run(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `
			INSERT INTO local_identities (id, email, phone, password_hash, created_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5)`,
			id, email, in.Phone, string(hash), now); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `
			INSERT INTO user_profiles (id, email, name, phone, role, department, position, team, title, field,
				status, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
				NULLIF($9, ''), NULLIF($10, ''), $11, $12, $12)`,
			id, email, in.Metadata.Name, in.Phone, role, in.Metadata.Department, in.Metadata.Position,
			in.Metadata.Team, in.Metadata.Title, in.Metadata.Field, entity.UserStatusActive, now)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(uniqueConstraint(err), "phone") {
				return "", &domain.DuplicateError{Field: "phone", Value: in.Phone}
			}
			return "", &domain.DuplicateError{Field: "email", Value: email}
		}
		return "", fmt.Errorf("create local identity: %w", err)
	}
	return id, nil
}

// DeleteUser elimina identidad y perfil.
func (s *LocalIdentityStore) DeleteUser(ctx context.Context, id string) error {
	return s.tx.Run(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `DELETE FROM user_profiles WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM local_identities WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete local identity: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// Authenticate compara la contraseña con el hash bcrypt. Email desconocido y contraseña
// incorrecta devuelven el mismo error.
func (s *LocalIdentityStore) Authenticate(ctx context.Context, email, password string) (string, error) {
	var id, hash string
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM local_identities WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&id, &hash)
	if err != nil {
		if isNoRows(err) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("find local identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}
