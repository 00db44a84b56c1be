package poster_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/poster"
	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

type stubGenerator struct {
	calls int
	got   ports.PosterRequest
	resp  *ports.PosterResponse
	err   error
}

func (s *stubGenerator) GeneratePoster(_ context.Context, req ports.PosterRequest) (*ports.PosterResponse, error) {
	s.calls++
	s.got = req
	return s.resp, s.err
}

type stubTrainings struct{ t *entity.TrainingSession }

func (s stubTrainings) GetByID(context.Context, string) (*entity.TrainingSession, error) {
	if s.t == nil {
		return nil, domain.ErrNotFound
	}
	return s.t, nil
}
func (stubTrainings) ListParticipants(context.Context, string) ([]*entity.Participant, error) {
	return nil, nil
}
func (stubTrainings) GetParticipant(context.Context, string) (*entity.Participant, error) {
	return nil, domain.ErrNotFound
}
func (stubTrainings) UpdateParticipant(context.Context, *entity.Participant) error { return nil }

type recordingAuditor struct{ entries []audit.ActionInput }

func (r *recordingAuditor) LogAction(_ context.Context, _ permission.Session, in audit.ActionInput) bool {
	r.entries = append(r.entries, in)
	return true
}

func newService(gen ports.PosterGenerator, aud poster.Auditor) *poster.Service {
	return poster.NewService(gen, stubTrainings{t: &entity.TrainingSession{
		Name: "财务培训", StartDate: "2026-03-01", Location: "上海", ExpertName: "王教授",
	}}, aud, "default-model", zerolog.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// GeneratePosterPrompt
// ──────────────────────────────────────────────────────────────────────────────

func TestGeneratePosterPrompt_FechaLargaYLugar(t *testing.T) {
	p := poster.GeneratePosterPrompt(poster.Training{Name: "财务培训", StartDate: "2026-03-01", Location: "上海"})
	assert.Contains(t, p, "2026年3月1日")
	assert.Contains(t, p, "上海")
	assert.Contains(t, p, "财务培训")
	assert.NotContains(t, p, "主讲专家", "sin ponente no se menciona")
}

func TestGeneratePosterPrompt_ConPonente(t *testing.T) {
	p := poster.GeneratePosterPrompt(poster.Training{Name: "税务", StartDate: "2026-12-25", Location: "北京", Presenter: "李老师"})
	assert.Contains(t, p, "2026年12月25日")
	assert.Contains(t, p, "主讲专家：李老师")
}

func TestLongChineseDate(t *testing.T) {
	assert.Equal(t, "2026年3月1日", poster.LongChineseDate("2026-03-01"))
	assert.Equal(t, "2026年11月20日", poster.LongChineseDate(" 2026-11-20 "))
	assert.Equal(t, "下周一", poster.LongChineseDate("下周一"), "formato desconocido se conserva")
}

func TestPromptForTraining(t *testing.T) {
	p, err := newService(&stubGenerator{}, nil).PromptForTraining(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Contains(t, p, "2026年3月1日")
	assert.Contains(t, p, "王教授")
}

// ──────────────────────────────────────────────────────────────────────────────
// GeneratePoster
// ──────────────────────────────────────────────────────────────────────────────

func TestGeneratePoster_AplicaValoresPorDefecto(t *testing.T) {
	gen := &stubGenerator{resp: &ports.PosterResponse{
		Created: 1767225600,
		Data:    []ports.PosterImage{{URL: "https://cdn/p.png"}, {B64JSON: "aGVsbG8="}},
	}}
	res, err := newService(gen, nil).GeneratePoster(context.Background(), poster.Request{Prompt: " 海报 "})
	require.NoError(t, err)

	assert.Equal(t, "海报", gen.got.Prompt)
	assert.Equal(t, "default-model", gen.got.Model)
	assert.Equal(t, poster.DefaultWidth, gen.got.Width)
	assert.Equal(t, poster.DefaultHeight, gen.got.Height)

	require.Len(t, res.Images, 2)
	assert.Equal(t, "https://cdn/p.png", res.Images[0].URL)
	assert.Equal(t, "aGVsbG8=", res.Images[1].Base64)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), res.CreatedAt)
}

func TestGeneratePoster_NoValidaDimensionesLocalmente(t *testing.T) {
	gen := &stubGenerator{err: &domain.NetworkError{StatusCode: 400, Body: `{"error":"尺寸必须在512到2048之间"}`}}
	_, err := newService(gen, nil).GeneratePoster(context.Background(), poster.Request{Prompt: "x", Width: 100, Height: 5000, Model: "m"})

	var ne *domain.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, `{"error":"尺寸必须在512到2048之间"}`, ne.Body, "cuerpo del proxy sin modificar")
	assert.Equal(t, 100, gen.got.Width)
	assert.Equal(t, "m", gen.got.Model)
	assert.Equal(t, 1, gen.calls, "sin reintentos")
}

func TestGeneratePoster_PromptVacio(t *testing.T) {
	gen := &stubGenerator{}
	_, err := newService(gen, nil).GeneratePoster(context.Background(), poster.Request{Prompt: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, gen.calls)
}

func TestGenerate_PermisoYAuditoria(t *testing.T) {
	aud := &recordingAuditor{}
	gen := &stubGenerator{resp: &ports.PosterResponse{Data: []ports.PosterImage{{URL: "u"}}}}
	svc := newService(gen, aud)

	_, err := svc.Generate(context.Background(), permission.NewSession(permission.Principal{UserID: "u"}, nil), poster.Request{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, gen.calls)

	sess := permission.NewSession(permission.Principal{UserID: "u"}, []permission.Capability{permission.PosterGenerate})
	res, err := svc.Generate(context.Background(), sess, poster.Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Len(t, res.Images, 1)
	require.Len(t, aud.entries, 1)
	assert.Equal(t, audit.ActionPosterGenerate, aud.entries[0].Action)
	assert.Equal(t, 1, aud.entries[0].Details["images"])
}

func TestGenerate_FalloSeAuditaComoFailure(t *testing.T) {
	aud := &recordingAuditor{}
	gen := &stubGenerator{err: &domain.NetworkError{StatusCode: 502, Body: "bad gateway"}}
	sess := permission.NewSession(permission.Principal{UserID: "u"}, []permission.Capability{permission.PosterGenerate})

	_, err := newService(gen, aud).Generate(context.Background(), sess, poster.Request{Prompt: "x"})
	require.Error(t, err)
	require.Len(t, aud.entries, 1)
	assert.Equal(t, entity.AuditStatusFailure, aud.entries[0].Status)
	assert.Equal(t, 502, aud.entries[0].Details["status_code"])
}
