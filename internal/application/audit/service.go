// Package audit registra las acciones de los usuarios en la bitácora de sólo inserción.
// Un fallo al auditar nunca interrumpe la operación auditada.
package audit

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// Acciones auditadas.
const (
	ActionLogin             = "login"
	ActionDataImport        = "data_import"
	ActionDataExport        = "data_export"
	ActionAccountCreate     = "account_create"
	ActionPermissionUpdate  = "permission_update"
	ActionUserDeactivate    = "user_deactivate"
	ActionParticipantUpdate = "participant_update"
	ActionPosterGenerate    = "poster_generate"
)

// Tipos de recurso.
const (
	ResourceUser        = "user"
	ResourcePermission  = "permission"
	ResourceParticipant = "training_participant"
	ResourceTraining    = "training"
	ResourcePoster      = "poster"
)

// Paginación por defecto.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const writeTimeout = 5 * time.Second

// ActionInput datos de la acción a registrar. Status vacío = success.
type ActionInput struct {
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	Status       string
	ErrorMessage string
}

// Filters filtros de consulta de la bitácora.
type Filters = repository.AuditFilter

// Page solicitud de página (1-based).
type Page struct {
	Page     int
	PageSize int
}

// LogPage página de resultados.
type LogPage struct {
	Items    []*entity.AuditLog `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// Service servicio de auditoría.
type Service struct {
	repo     repository.AuditLogRepository
	profiles repository.ProfileRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewService construye el servicio. profiles puede ser nil (sin resolución de nombre).
func NewService(repo repository.AuditLogRepository, profiles repository.ProfileRepository, log zerolog.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, log: log, now: time.Now}
}

// LogAction agrega una entrada. Devuelve false si no se pudo registrar; nunca entra en pánico.
func (s *Service) LogAction(ctx context.Context, sess permission.Session, in ActionInput) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("action", in.Action).Msg("audit: pánico al registrar")
			ok = false
		}
	}()

	if !sess.IsAuthenticated() {
		s.log.Warn().Str("action", in.Action).Msg("audit: acción sin usuario autenticado")
		return false
	}

	// El registro no debe quedar atado a la cancelación de la petición original.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	status := in.Status
	if status == "" {
		status = entity.AuditStatusSuccess
	}
	entry := &entity.AuditLog{
		ID:           uuid.New().String(),
		CreatedAt:    s.now().UTC(),
		ActorID:      sess.UserID,
		ActorName:    s.actorName(wctx, sess),
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Details:      in.Details,
		Status:       status,
		ErrorMessage: in.ErrorMessage,
	}
	if err := s.repo.Insert(wctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("action", in.Action).
			Str("resource_type", in.ResourceType).
			Str("actor_id", sess.UserID).
			Msg("audit: insertar entrada")
		return false
	}
	return true
}

func (s *Service) actorName(ctx context.Context, sess permission.Session) string {
	if sess.Name != "" || s.profiles == nil {
		return sess.DisplayName()
	}
	p, err := s.profiles.GetByID(ctx, sess.UserID)
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", sess.UserID).Msg("audit: resolver nombre del actor")
		return sess.DisplayName()
	}
	if p == nil {
		return sess.DisplayName()
	}
	if p.Name != "" {
		return p.Name
	}
	return sess.DisplayName()
}

// GetAuditLogs lista la bitácora (más recientes primero) con el total, consultados en paralelo.
func (s *Service) GetAuditLogs(ctx context.Context, f Filters, p Page) (*LogPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	offset := (p.Page - 1) * p.PageSize

	var (
		items []*entity.AuditLog
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, f, p.PageSize, offset)
		if err != nil {
			return fmt.Errorf("listar auditoría: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, f)
		if err != nil {
			return fmt.Errorf("contar auditoría: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.AuditLog{}
	}
	return &LogPage{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// LogParticipantUpdate registra los campos modificados de un participante con las instantáneas completas.
// Sin cambios no escribe nada y devuelve true.
func (s *Service) LogParticipantUpdate(ctx context.Context, sess permission.Session, participantID string, before, after map[string]any) bool {
	changed := ChangedFields(before, after)
	if len(changed) == 0 {
		return true
	}
	return s.LogAction(ctx, sess, ActionInput{
		Action:       ActionParticipantUpdate,
		ResourceType: ResourceParticipant,
		ResourceID:   participantID,
		Details: map[string]any{
			"changed_fields": changed,
			"before":         before,
			"after":          after,
		},
	})
}

// ChangedFields nombres de campo cuyo valor difiere entre before y after, ordenados.
func ChangedFields(before, after map[string]any) []string {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	var out []string
	for k := range keys {
		if !reflect.DeepEqual(before[k], after[k]) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
