// Package provisioning da de alta cuentas de usuario a partir de registros importados,
// de forma secuencial y con pausas para no superar el límite del proveedor de identidades.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// Motivos mostrados al usuario.
const (
	ReasonMissingName    = "姓名不能为空"
	ReasonMissingEmail   = "邮箱不能为空"
	ReasonMissingPhone   = "手机号不能为空"
	ReasonInvalidEmail   = "邮箱格式不正确"
	ReasonInvalidPhone   = "手机号格式不正确"
	ReasonDuplicateEmail = "邮箱已被注册"
	ReasonDuplicatePhone = "手机号已被注册"
	ReasonCreateFailed   = "创建账号失败"
)

// FailureKind causa de un alta fallida.
type FailureKind string

const (
	MissingField    FailureKind = "missing_field"
	InvalidFormat   FailureKind = "invalid_format"
	DuplicateEmail  FailureKind = "duplicate_email"
	DuplicatePhone  FailureKind = "duplicate_phone"
	UpstreamFailure FailureKind = "upstream_failure"
)

// Failure detalle estructurado del fallo.
type Failure struct {
	Kind  FailureKind `json:"kind"`
	Field string      `json:"field,omitempty"`
	Value string      `json:"value,omitempty"`
}

// Skipped indica si el fallo se contabiliza como omitido (ya registrado) y no como error.
func (f *Failure) Skipped() bool {
	return f != nil && (f.Kind == DuplicateEmail || f.Kind == DuplicatePhone)
}

// Person datos de la persona para la que se crea la cuenta.
type Person struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Team       string `json:"team,omitempty"`
	Title      string `json:"title,omitempty"`
	Field      string `json:"field,omitempty"`
}

// Result resultado de un alta individual.
type Result struct {
	Success bool     `json:"success"`
	UserID  string   `json:"user_id,omitempty"`
	Name    string   `json:"name"`
	Failure *Failure `json:"failure,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// BatchResult resultado de un alta masiva; Results conserva el orden de entrada.
type BatchResult struct {
	Results []Result `json:"results"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Summary string   `json:"summary"`
}

// Recorder recibe el desenlace de cada alta (created, skipped, failed) para métricas.
type Recorder interface {
	AccountOutcome(outcome string)
}

// Config parámetros del servicio.
type Config struct {
	DefaultPassword string
	SettleDelay     time.Duration
	PauseEvery      int
	Pause           time.Duration
}

// Service crea cuentas de usuario contra el proveedor de identidades.
type Service struct {
	identity    ports.IdentityProvider
	profiles    repository.ProfileRepository
	permissions repository.PermissionRepository
	recorder    Recorder
	cfg         Config
	sleep       SleepFunc
	log         zerolog.Logger
}

// Option configura dependencias opcionales.
type Option func(*Service)

// WithSleep sustituye la espera real (tests).
func WithSleep(fn SleepFunc) Option { return func(s *Service) { s.sleep = fn } }

// WithRecorder registra los desenlaces en métricas.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithPermissions concede las capacidades por defecto del rol tras cada alta.
func WithPermissions(p repository.PermissionRepository) Option {
	return func(s *Service) { s.permissions = p }
}

// NewService construye el servicio de altas.
func NewService(identity ports.IdentityProvider, profiles repository.ProfileRepository, cfg Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{identity: identity, profiles: profiles, cfg: cfg, sleep: Sleep, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

func fail(name string, kind FailureKind, field, value, reason string) Result {
	return Result{Name: name, Failure: &Failure{Kind: kind, Field: field, Value: value}, Reason: reason}
}

// CreateAccount valida la persona, crea la identidad y verifica que exista su perfil.
// El primer fallo encontrado determina el resultado.
func (s *Service) CreateAccount(ctx context.Context, p Person, role string) Result {
	name := strings.TrimSpace(p.Name)
	email := strings.TrimSpace(p.Email)
	phone := strings.TrimSpace(p.Phone)

	switch {
	case name == "":
		return fail(name, MissingField, "name", "", ReasonMissingName)
	case email == "":
		return fail(name, MissingField, "email", "", ReasonMissingEmail)
	case phone == "":
		return fail(name, MissingField, "phone", "", ReasonMissingPhone)
	case !domain.ValidEmail(email):
		return fail(name, InvalidFormat, "email", email, ReasonInvalidEmail)
	case !domain.ValidMobile(phone):
		return fail(name, InvalidFormat, "phone", phone, ReasonInvalidPhone)
	}

	exists, err := s.profiles.EmailExists(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("verificar email existente")
		return fail(name, UpstreamFailure, "email", email, ReasonCreateFailed)
	}
	if exists {
		return fail(name, DuplicateEmail, "email", email, ReasonDuplicateEmail)
	}
	exists, err = s.profiles.PhoneExists(ctx, phone)
	if err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("verificar teléfono existente")
		return fail(name, UpstreamFailure, "phone", phone, ReasonCreateFailed)
	}
	if exists {
		return fail(name, DuplicatePhone, "phone", phone, ReasonDuplicatePhone)
	}

	userID, err := s.identity.CreateUser(ctx, ports.NewIdentity{
		Email:    email,
		Phone:    phone,
		Password: s.cfg.DefaultPassword,
		Metadata: ports.IdentityMetadata{
			Name:       name,
			Phone:      phone,
			Role:       role,
			Department: strings.TrimSpace(p.Department),
			Position:   strings.TrimSpace(p.Position),
			Team:       strings.TrimSpace(p.Team),
			Title:      strings.TrimSpace(p.Title),
			Field:      strings.TrimSpace(p.Field),
		},
	})
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("crear identidad")
		return fail(name, UpstreamFailure, "", "", ReasonCreateFailed)
	}

	// El perfil lo crea un trigger del backend de forma asíncrona.
	if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
		s.compensate(userID, err)
		return fail(name, UpstreamFailure, "", "", ReasonCreateFailed)
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil || profile == nil {
		if err == nil {
			err = errors.New("perfil no creado tras el tiempo de espera")
		}
		s.compensate(userID, err)
		return fail(name, UpstreamFailure, "", "", ReasonCreateFailed)
	}

	if s.permissions != nil {
		caps := permission.DefaultsForRole(role)
		raw := make([]string, len(caps))
		for i, c := range caps {
			raw[i] = string(c)
		}
		if err := s.permissions.ReplaceForUser(ctx, userID, raw, ""); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("asignar permisos por defecto")
		}
	}

	return Result{Success: true, UserID: userID, Name: name}
}

// compensate elimina la identidad huérfana. Usa un contexto propio: la petición pudo haberse cancelado.
func (s *Service) compensate(userID string, cause error) {
	s.log.Warn().Err(cause).Str("user_id", userID).Msg("perfil ausente; eliminando identidad huérfana")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("eliminar identidad huérfana")
	}
}

// BatchCreateAccounts crea las cuentas una a una, en orden, pausando cada N altas exitosas.
func (s *Service) BatchCreateAccounts(ctx context.Context, people []Person, role string) BatchResult {
	throttle := NewThrottle(s.cfg.PauseEvery, s.cfg.Pause, s.sleep)
	out := BatchResult{Results: make([]Result, 0, len(people))}

	for _, p := range people {
		var res Result
		if err := ctx.Err(); err != nil {
			res = fail(strings.TrimSpace(p.Name), UpstreamFailure, "", "", ReasonCreateFailed)
		} else {
			res = s.CreateAccount(ctx, p, role)
		}
		out.Results = append(out.Results, res)

		switch {
		case res.Success:
			out.Created++
			s.record("created")
			if err := throttle.Success(ctx); err != nil {
				s.log.Warn().Err(err).Msg("pausa de alta masiva interrumpida")
			}
		case res.Failure.Skipped():
			out.Skipped++
			s.record("skipped")
		default:
			out.Failed++
			s.record("failed")
		}
	}

	out.Summary = fmt.Sprintf("成功创建 %d 个账号，跳过 %d 个，失败 %d 个", out.Created, out.Skipped, out.Failed)
	s.log.Info().
		Str("role", role).
		Int("created", out.Created).
		Int("skipped", out.Skipped).
		Int("failed", out.Failed).
		Msg("alta masiva de cuentas finalizada")
	return out
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.AccountOutcome(outcome)
	}
}
