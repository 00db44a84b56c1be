package usecase

import (
	"context"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// ParticipantAuditor registra la edición de participantes con instantáneas antes/después.
type ParticipantAuditor interface {
	LogParticipantUpdate(ctx context.Context, sess permission.Session, participantID string, before, after map[string]any) bool
}

// TrainingUseCase participantes de las sesiones de capacitación.
type TrainingUseCase struct {
	repo    repository.TrainingRepository
	auditor ParticipantAuditor
}

// NewTrainingUseCase construye el caso de uso.
func NewTrainingUseCase(repo repository.TrainingRepository, auditor ParticipantAuditor) *TrainingUseCase {
	return &TrainingUseCase{repo: repo, auditor: auditor}
}

// ListParticipants participantes de una sesión. Requiere training_view.
func (uc *TrainingUseCase) ListParticipants(ctx context.Context, sess permission.Session, trainingID string) ([]dto.ParticipantResponse, error) {
	if !sess.HasPermission(permission.TrainingView) {
		return nil, domain.ErrForbidden
	}
	t, err := uc.repo.GetByID(ctx, trainingID)
	if err != nil {
		return nil, &domain.BackendError{Op: "leer capacitación", Message: "读取培训失败", Err: err}
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.repo.ListParticipants(ctx, trainingID)
	if err != nil {
		return nil, &domain.BackendError{Op: "listar participantes", Message: "读取参训人员失败", Err: err}
	}
	out := make([]dto.ParticipantResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toParticipantResponse(p))
	}
	return out, nil
}

// UpdateParticipant aplica los campos presentes. Sin cambios efectivos no escribe ni audita.
// Requiere training_participant_manage.
func (uc *TrainingUseCase) UpdateParticipant(ctx context.Context, sess permission.Session, id string, in dto.UpdateParticipantRequest) (*dto.UpdateParticipantResponse, error) {
	if !sess.HasPermission(permission.TrainingParticipantManage) {
		return nil, domain.ErrForbidden
	}
	p, err := uc.repo.GetParticipant(ctx, id)
	if err != nil {
		return nil, &domain.BackendError{Op: "leer participante", Message: "读取参训人员失败", Err: err}
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	before := p.Snapshot()
	applyParticipantChanges(p, in)
	after := p.Snapshot()

	changed := audit.ChangedFields(before, after)
	if len(changed) == 0 {
		return &dto.UpdateParticipantResponse{Participant: toParticipantResponse(p), ChangedFields: []string{}}, nil
	}
	if err := uc.repo.UpdateParticipant(ctx, p); err != nil {
		return nil, &domain.BackendError{Op: "actualizar participante", Message: "保存参训人员失败", Err: err}
	}
	uc.auditor.LogParticipantUpdate(ctx, sess, p.ID, before, after)
	return &dto.UpdateParticipantResponse{Participant: toParticipantResponse(p), ChangedFields: changed}, nil
}

func applyParticipantChanges(p *entity.Participant, in dto.UpdateParticipantRequest) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Company != nil {
		p.Company = *in.Company
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.SalespersonName != nil {
		p.SalespersonName = *in.SalespersonName
	}
	if in.Paid != nil {
		p.Paid = *in.Paid
	}
	if in.Amount != nil {
		p.Amount = *in.Amount
	}
	if in.Notes != nil {
		p.Notes = *in.Notes
	}
}

func toParticipantResponse(p *entity.Participant) dto.ParticipantResponse {
	return dto.ParticipantResponse{
		ID:              p.ID,
		TrainingID:      p.TrainingID,
		Name:            p.Name,
		Company:         p.Company,
		Phone:           p.Phone,
		SalespersonName: p.SalespersonName,
		Paid:            p.Paid,
		Amount:          p.Amount,
		Notes:           p.Notes,
		UpdatedAt:       p.UpdatedAt,
	}
}
