package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

var _ repository.TrainingRepository = (*TrainingRepo)(nil)

const participantColumns = `
	id, training_id, name, COALESCE(company, ''), COALESCE(phone, ''),
	COALESCE(salesperson_name, ''), COALESCE(paid, false), COALESCE(amount, 0),
	COALESCE(notes, ''), created_at, updated_at`

// TrainingRepo sesiones (training_sessions) y participantes (training_participants).
type TrainingRepo struct {
	q Querier
}

// NewTrainingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTrainingRepository(q Querier) *TrainingRepo {
	return &TrainingRepo{q: q}
}

// GetByID obtiene una sesión. nil si no existe.
func (r *TrainingRepo) GetByID(ctx context.Context, id string) (*entity.TrainingSession, error) {
	query := `
		SELECT id, name, start_date::text, COALESCE(end_date::text, ''),
			COALESCE(start_time, ''), COALESCE(end_time, ''), COALESCE(location, ''),
			COALESCE(expert_name, ''), COALESCE(participant_count, 0), COALESCE(capacity, 0),
			COALESCE(price, 0), COALESCE(type, ''), COALESCE(online, false), tags,
			COALESCE(status, ''), COALESCE(notes, ''), created_at, updated_at
		FROM training_sessions WHERE id = $1`
	var t entity.TrainingSession
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.StartDate, &t.EndDate,
		&t.StartTime, &t.EndTime, &t.Location,
		&t.ExpertName, &t.ParticipantCount, &t.Capacity,
		&t.Price, &t.Type, &t.Online, &t.Tags,
		&t.Status, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training: %w", err)
	}
	return &t, nil
}

// ListParticipants participantes de la sesión en orden de inscripción.
func (r *TrainingRepo) ListParticipants(ctx context.Context, trainingID string) ([]*entity.Participant, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+participantColumns+` FROM training_participants WHERE training_id = $1 ORDER BY created_at, id`,
		trainingID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	var list []*entity.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetParticipant obtiene un participante. nil si no existe.
func (r *TrainingRepo) GetParticipant(ctx context.Context, id string) (*entity.Participant, error) {
	p, err := scanParticipant(r.q.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM training_participants WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// UpdateParticipant actualiza los campos editables de un participante.
func (r *TrainingRepo) UpdateParticipant(ctx context.Context, p *entity.Participant) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE training_participants
		SET name = $2, company = $3, phone = $4, salesperson_name = $5,
			paid = $6, amount = $7, notes = $8, updated_at = $9
		WHERE id = $1`,
		p.ID, p.Name, p.Company, p.Phone, p.SalespersonName, p.Paid, p.Amount, p.Notes, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanParticipant(row scanner) (*entity.Participant, error) {
	var p entity.Participant
	if err := row.Scan(&p.ID, &p.TrainingID, &p.Name, &p.Company, &p.Phone,
		&p.SalespersonName, &p.Paid, &p.Amount,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
