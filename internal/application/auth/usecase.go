package auth

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
	"github.com/jhoicas/training-crm-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Auditor registra el login.
type Auditor interface {
	LogAction(ctx context.Context, sess permission.Session, in audit.ActionInput) bool
}

// AuthUseCase login contra el proveedor de identidades y emisión del JWT propio.
type AuthUseCase struct {
	authn    ports.Authenticator
	sessions *SessionService
	auditor  Auditor
	jwtCfg   JWTConfig
	log      zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(authn ports.Authenticator, sessions *SessionService, auditor Auditor, jwtCfg JWTConfig, log zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{authn: authn, sessions: sessions, auditor: auditor, jwtCfg: jwtCfg, log: log}
}

// Login verifica credenciales, exige perfil activo, genera el JWT y retorna token + usuario con sus permisos.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	userID, err := uc.authn.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, domain.ErrUnauthorized
		}
		return nil, &domain.BackendError{Op: "login", Message: "登录服务暂不可用", Err: err}
	}

	profile, caps, err := uc.sessions.load(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !profile.IsActive() {
		return nil, domain.ErrForbidden
	}

	expiresAt := time.Now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute).UTC()
	token, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Identity{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}

	sess := permission.NewSession(principal(profile), caps)
	if uc.auditor != nil {
		uc.auditor.LogAction(ctx, sess, audit.ActionInput{
			Action:       audit.ActionLogin,
			ResourceType: audit.ResourceUser,
			ResourceID:   profile.ID,
		})
	}
	uc.log.Info().Str("user_id", profile.ID).Str("role", profile.Role).Msg("login")

	user := ToUserResponse(profile)
	user.Permissions = capabilityStrings(caps)
	return &dto.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// SessionService construye la sesión explícita de cada petición: perfil más capacidades concedidas.
type SessionService struct {
	profiles    repository.ProfileRepository
	permissions repository.PermissionRepository
	log         zerolog.Logger
}

// NewSessionService construye el servicio de sesión.
func NewSessionService(profiles repository.ProfileRepository, permissions repository.PermissionRepository, log zerolog.Logger) *SessionService {
	return &SessionService{profiles: profiles, permissions: permissions, log: log}
}

// LoadSession lee el perfil y los permisos vigentes. Un usuario inactivo devuelve ErrForbidden.
// Las capacidades fuera del catálogo se descartan.
func (s *SessionService) LoadSession(ctx context.Context, userID string) (permission.Session, error) {
	profile, caps, err := s.load(ctx, userID)
	if err != nil {
		return permission.Anonymous(), err
	}
	if !profile.IsActive() {
		return permission.Anonymous(), domain.ErrForbidden
	}
	return permission.NewSession(principal(profile), caps), nil
}

func (s *SessionService) load(ctx context.Context, userID string) (*entity.UserProfile, []permission.Capability, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, &domain.BackendError{Op: "cargar perfil", Message: "读取用户信息失败", Err: err}
	}
	if profile == nil {
		return nil, nil, domain.ErrUserNotFound
	}
	raw, err := s.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, &domain.BackendError{Op: "cargar permisos", Message: "读取权限失败", Err: err}
	}
	caps := make([]permission.Capability, 0, len(raw))
	for _, r := range raw {
		c := permission.Capability(r)
		if !permission.IsKnown(c) {
			s.log.Warn().Str("user_id", userID).Str("capability", r).Msg("permiso fuera del catálogo ignorado")
			continue
		}
		caps = append(caps, c)
	}
	return profile, caps, nil
}

func principal(p *entity.UserProfile) permission.Principal {
	return permission.Principal{
		UserID:     p.ID,
		Email:      p.Email,
		Name:       p.Name,
		Role:       p.Role,
		Department: p.Department,
	}
}

// ToUserResponse convierte el perfil en su DTO (sin permisos).
func ToUserResponse(u *entity.UserProfile) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		Role:       u.Role,
		Department: u.Department,
		Position:   u.Position,
		Team:       u.Team,
		Title:      u.Title,
		Field:      u.Field,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// SessionResponse vista de la sesión para el cliente.
func SessionResponse(sess permission.Session) dto.SessionResponse {
	return dto.SessionResponse{
		UserID:      sess.UserID,
		Email:       sess.Email,
		Name:        sess.Name,
		Role:        sess.Role,
		Department:  sess.Department,
		Permissions: capabilityStrings(sess.Capabilities()),
	}
}

func capabilityStrings(caps []permission.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	sort.Strings(out)
	return out
}
