package repository

import (
	"context"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
)

// TrainingRepository sesiones de capacitación y sus participantes.
type TrainingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.TrainingSession, error)
	ListParticipants(ctx context.Context, trainingID string) ([]*entity.Participant, error)
	GetParticipant(ctx context.Context, id string) (*entity.Participant, error)
	UpdateParticipant(ctx context.Context, p *entity.Participant) error
}
