package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type memRepo struct {
	mu        sync.Mutex
	entries   []*entity.AuditLog
	insertErr error
	listErr   error
	lastLimit int
	lastOff   int
}

func (m *memRepo) Insert(_ context.Context, l *entity.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, l)
	return nil
}

func (m *memRepo) List(_ context.Context, _ repository.AuditFilter, limit, offset int) ([]*entity.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit, m.lastOff = limit, offset
	if m.listErr != nil {
		return nil, m.listErr
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	if offset > end {
		return nil, nil
	}
	return m.entries[offset:end], nil
}

func (m *memRepo) Count(context.Context, repository.AuditFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

type stubProfiles struct {
	repository.ProfileRepository
	profile *entity.UserProfile
	err     error
}

func (s stubProfiles) GetByID(context.Context, string) (*entity.UserProfile, error) {
	return s.profile, s.err
}

type panicRepo struct{ memRepo }

func (p *panicRepo) Insert(context.Context, *entity.AuditLog) error { panic("db driver exploded") }

func sess(name string) permission.Session {
	return permission.NewSession(permission.Principal{UserID: "u-1", Email: "admin@example.com", Name: name}, nil)
}

// ──────────────────────────────────────────────────────────────────────────────
// LogAction
// ──────────────────────────────────────────────────────────────────────────────

func TestLogAction_AgregaUnaEntrada(t *testing.T) {
	repo := &memRepo{}
	svc := audit.NewService(repo, nil, zerolog.Nop())

	ok := svc.LogAction(context.Background(), sess("管理员"), audit.ActionInput{
		Action: audit.ActionDataImport, ResourceType: "customers", Details: map[string]any{"rows": 3},
	})
	require.True(t, ok)
	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, "u-1", e.ActorID)
	assert.Equal(t, "管理员", e.ActorName)
	assert.Equal(t, "data_import", e.Action)
	assert.Equal(t, entity.AuditStatusSuccess, e.Status, "status por defecto")
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestLogAction_FalloDelBackendDevuelveFalse(t *testing.T) {
	repo := &memRepo{insertErr: errors.New("connection refused")}
	svc := audit.NewService(repo, nil, zerolog.Nop())
	assert.False(t, svc.LogAction(context.Background(), sess("x"), audit.ActionInput{Action: audit.ActionLogin}))
}

func TestLogAction_NoEntraEnPanico(t *testing.T) {
	svc := audit.NewService(&panicRepo{}, nil, zerolog.Nop())
	assert.NotPanics(t, func() {
		assert.False(t, svc.LogAction(context.Background(), sess("x"), audit.ActionInput{Action: audit.ActionLogin}))
	})
}

func TestLogAction_SinSesionNoEscribe(t *testing.T) {
	repo := &memRepo{}
	svc := audit.NewService(repo, nil, zerolog.Nop())
	assert.False(t, svc.LogAction(context.Background(), permission.Anonymous(), audit.ActionInput{Action: audit.ActionLogin}))
	assert.Empty(t, repo.entries)
}

func TestLogAction_ContextoCanceladoIgualRegistra(t *testing.T) {
	repo := &memRepo{}
	svc := audit.NewService(repo, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, svc.LogAction(ctx, sess("x"), audit.ActionInput{Action: audit.ActionDataExport}))
}

func TestLogAction_NombreDelActor(t *testing.T) {
	repo := &memRepo{}
	noName := permission.NewSession(permission.Principal{UserID: "u-9", Email: "ops@example.com"}, nil)

	audit.NewService(repo, stubProfiles{profile: &entity.UserProfile{ID: "u-9", Name: "运维"}}, zerolog.Nop()).
		LogAction(context.Background(), noName, audit.ActionInput{Action: audit.ActionLogin})
	audit.NewService(repo, stubProfiles{err: errors.New("timeout")}, zerolog.Nop()).
		LogAction(context.Background(), noName, audit.ActionInput{Action: audit.ActionLogin})
	audit.NewService(repo, nil, zerolog.Nop()).
		LogAction(context.Background(), permission.NewSession(permission.Principal{UserID: "u-9"}, nil), audit.ActionInput{Action: audit.ActionLogin})

	require.Len(t, repo.entries, 3)
	assert.Equal(t, "运维", repo.entries[0].ActorName, "nombre del perfil")
	assert.Equal(t, "ops@example.com", repo.entries[1].ActorName, "respaldo: email")
	assert.Equal(t, "u-9", repo.entries[2].ActorName, "respaldo: id")
}

// ──────────────────────────────────────────────────────────────────────────────
// GetAuditLogs
// ──────────────────────────────────────────────────────────────────────────────

func TestGetAuditLogs_Paginacion(t *testing.T) {
	repo := &memRepo{}
	for i := 0; i < 45; i++ {
		repo.entries = append(repo.entries, &entity.AuditLog{ID: string(rune('a' + i%26)), CreatedAt: time.Now()})
	}
	svc := audit.NewService(repo, nil, zerolog.Nop())

	page, err := svc.GetAuditLogs(context.Background(), audit.Filters{}, audit.Page{Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 40, repo.lastOff)

	page, err = svc.GetAuditLogs(context.Background(), audit.Filters{}, audit.Page{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, audit.MaxPageSize, page.PageSize)

	page, err = svc.GetAuditLogs(context.Background(), audit.Filters{}, audit.Page{})
	require.NoError(t, err)
	assert.Equal(t, audit.DefaultPageSize, page.PageSize)
}

func TestGetAuditLogs_Error(t *testing.T) {
	svc := audit.NewService(&memRepo{listErr: errors.New("boom")}, nil, zerolog.Nop())
	_, err := svc.GetAuditLogs(context.Background(), audit.Filters{}, audit.Page{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

// ──────────────────────────────────────────────────────────────────────────────
// LogParticipantUpdate
// ──────────────────────────────────────────────────────────────────────────────

func TestLogParticipantUpdate_CamposCambiadosOrdenados(t *testing.T) {
	repo := &memRepo{}
	svc := audit.NewService(repo, nil, zerolog.Nop())

	before := map[string]any{"name": "张三", "paid": false, "notes": "", "company": "甲公司"}
	after := map[string]any{"name": "张三", "paid": true, "notes": "已缴费", "company": "甲公司", "phone": "13800000000"}

	require.True(t, svc.LogParticipantUpdate(context.Background(), sess("x"), "p-1", before, after))
	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, audit.ActionParticipantUpdate, e.Action)
	assert.Equal(t, "p-1", e.ResourceID)
	assert.Equal(t, []string{"notes", "paid", "phone"}, e.Details["changed_fields"])
	assert.Equal(t, before, e.Details["before"])
	assert.Equal(t, after, e.Details["after"])
}

func TestLogParticipantUpdate_SinCambiosNoEscribe(t *testing.T) {
	repo := &memRepo{}
	svc := audit.NewService(repo, nil, zerolog.Nop())
	snap := map[string]any{"name": "张三", "paid": true}
	assert.True(t, svc.LogParticipantUpdate(context.Background(), sess("x"), "p-1", snap, map[string]any{"name": "张三", "paid": true}))
	assert.Empty(t, repo.entries)
}

func TestChangedFields(t *testing.T) {
	assert.Empty(t, audit.ChangedFields(nil, nil))
	assert.Equal(t, []string{"a", "b"}, audit.ChangedFields(map[string]any{"a": 1, "c": "x"}, map[string]any{"b": 2, "c": "x"}))
}
