// Package poster genera pósters promocionales de las capacitaciones a través del proxy de imágenes.
package poster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// Dimensiones por defecto cuando la petición no las indica.
const (
	DefaultWidth  = 1024
	DefaultHeight = 1024
)

// Request parámetros de generación. Los opcionales en cero toman los valores por defecto.
type Request struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Watermark bool   `json:"watermark,omitempty"`
}

// Image imagen generada: URL o contenido base64.
type Image struct {
	URL    string `json:"url,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

// Result imágenes devueltas por el proveedor.
type Result struct {
	Images    []Image   `json:"images"`
	CreatedAt time.Time `json:"created_at"`
}

// Training datos de la sesión usados para componer el prompt.
type Training struct {
	Name      string
	StartDate string // YYYY-MM-DD
	Location  string
	Presenter string
}

// Auditor registra la generación.
type Auditor interface {
	LogAction(ctx context.Context, sess permission.Session, in audit.ActionInput) bool
}

// Service servicio de pósters.
type Service struct {
	gen       ports.PosterGenerator
	trainings repository.TrainingRepository
	auditor   Auditor
	model     string
	log       zerolog.Logger
	now       func() time.Time
}

// NewService construye el servicio. defaultModel se usa cuando la petición no indica modelo.
func NewService(gen ports.PosterGenerator, trainings repository.TrainingRepository, auditor Auditor, defaultModel string, log zerolog.Logger) *Service {
	return &Service{gen: gen, trainings: trainings, auditor: auditor, model: defaultModel, log: log, now: time.Now}
}

// GeneratePoster hace una única llamada al proxy, sin reintentos. Un estado no 2xx llega como
// *domain.NetworkError con el cuerpo del proxy sin modificar. El rango de dimensiones lo valida el proxy.
func (s *Service) GeneratePoster(ctx context.Context, req Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, &domain.ValidationError{Field: "prompt", Message: "提示词不能为空"}
	}
	out := ports.PosterRequest{
		Prompt:    prompt,
		Model:     req.Model,
		Width:     req.Width,
		Height:    req.Height,
		ImageURL:  strings.TrimSpace(req.ImageURL),
		Watermark: req.Watermark,
	}
	if out.Model == "" {
		out.Model = s.model
	}
	if out.Width == 0 {
		out.Width = DefaultWidth
	}
	if out.Height == 0 {
		out.Height = DefaultHeight
	}

	resp, err := s.gen.GeneratePoster(ctx, out)
	if err != nil {
		return nil, err
	}

	res := &Result{Images: make([]Image, 0, len(resp.Data))}
	for _, d := range resp.Data {
		res.Images = append(res.Images, Image{URL: d.URL, Base64: d.B64JSON})
	}
	if resp.Created > 0 {
		res.CreatedAt = time.Unix(resp.Created, 0).UTC()
	} else {
		res.CreatedAt = s.now().UTC()
	}
	return res, nil
}

// Generate comprueba poster_generate, genera y audita el resultado.
func (s *Service) Generate(ctx context.Context, sess permission.Session, req Request) (*Result, error) {
	if !sess.HasPermission(permission.PosterGenerate) {
		return nil, domain.ErrForbidden
	}
	res, err := s.GeneratePoster(ctx, req)

	in := audit.ActionInput{
		Action:       audit.ActionPosterGenerate,
		ResourceType: audit.ResourcePoster,
		Details: map[string]any{
			"model":  firstNonEmpty(req.Model, s.model),
			"width":  req.Width,
			"height": req.Height,
		},
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("poster: generación fallida")
		in.Status = entity.AuditStatusFailure
		in.ErrorMessage = err.Error()
		var ne *domain.NetworkError
		if errors.As(err, &ne) {
			in.Details["status_code"] = ne.StatusCode
		}
	} else {
		in.Details["images"] = len(res.Images)
	}
	if s.auditor != nil {
		s.auditor.LogAction(ctx, sess, in)
	}
	return res, err
}

// PromptForTraining compone el prompt a partir de una sesión guardada; el experto es el ponente.
func (s *Service) PromptForTraining(ctx context.Context, trainingID string) (string, error) {
	if s.trainings == nil {
		return "", domain.ErrNotFound
	}
	t, err := s.trainings.GetByID(ctx, trainingID)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", domain.ErrNotFound
	}
	return GeneratePosterPrompt(Training{
		Name:      t.Name,
		StartDate: t.StartDate,
		Location:  t.Location,
		Presenter: t.ExpertName,
	}), nil
}

// GeneratePosterPrompt plantilla fija en chino. Sólo arma el texto.
func GeneratePosterPrompt(t Training) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请为培训课程设计一张专业的宣传海报。课程名称：「%s」。", strings.TrimSpace(t.Name))
	fmt.Fprintf(&b, "培训时间：%s。", LongChineseDate(t.StartDate))
	fmt.Fprintf(&b, "培训地点：%s。", strings.TrimSpace(t.Location))
	if p := strings.TrimSpace(t.Presenter); p != "" {
		fmt.Fprintf(&b, "主讲专家：%s。", p)
	}
	b.WriteString("画面简洁大气，以课程名称为主标题，醒目展示时间和地点，整体风格专业可信，适合培训招生宣传。")
	return b.String()
}

// LongChineseDate convierte YYYY-MM-DD en "2026年3月1日". Otros formatos se devuelven tal cual.
func LongChineseDate(s string) string {
	s = strings.TrimSpace(s)
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d年%d月%d日", d.Year(), int(d.Month()), d.Day())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
