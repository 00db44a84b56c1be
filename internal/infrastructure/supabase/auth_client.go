// Package supabase adaptador de Supabase Auth (API REST de GoTrue).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
)

var (
	_ ports.IdentityProvider = (*AuthClient)(nil)
	_ ports.Authenticator    = (*AuthClient)(nil)
)

// AuthClient usa la service role key para la API admin y la anon key para el login.
type AuthClient struct {
	baseURL        string
	serviceRoleKey string
	anonKey        string
	httpClient     *http.Client
}

// NewAuthClient construye el cliente. baseURL es la URL del proyecto (https://xyz.supabase.co).
func NewAuthClient(baseURL, serviceRoleKey, anonKey string) *AuthClient {
	return &AuthClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		serviceRoleKey: serviceRoleKey,
		anonKey:        anonKey,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

type createUserRequest struct {
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone,omitempty"`
	Password     string                 `json:"password"`
	EmailConfirm bool                   `json:"email_confirm"`
	PhoneConfirm bool                   `json:"phone_confirm"`
	UserMetadata ports.IdentityMetadata `json:"user_metadata"`
}

type userResponse struct {
	ID string `json:"id"`
}

// errorResponse cubre los dos formatos de error de GoTrue (msg/error_code y error/error_description).
type errorResponse struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// CreateUser POST /auth/v1/admin/users con email y teléfono confirmados.
// El trigger on_auth_user_created copia user_metadata a user_profiles.
func (c *AuthClient) CreateUser(ctx context.Context, in ports.NewIdentity) (string, error) {
	payload := createUserRequest{
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Password:     in.Password,
		EmailConfirm: true,
		PhoneConfirm: in.Phone != "",
		UserMetadata: in.Metadata,
	}
	status, raw, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceRoleKey, payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", c.createError(status, raw, in)
	}
	var u userResponse
	if err := json.Unmarshal(raw, &u); err != nil {
		return "", fmt.Errorf("supabase: deserializar usuario: %w", err)
	}
	if u.ID == "" {
		return "", fmt.Errorf("supabase: respuesta sin id de usuario")
	}
	return u.ID, nil
}

func (c *AuthClient) createError(status int, raw []byte, in ports.NewIdentity) error {
	var e errorResponse
	_ = json.Unmarshal(raw, &e)
	msg := strings.ToLower(e.text())
	switch {
	case e.ErrorCode == "email_exists" || strings.Contains(msg, "email address has already been registered"):
		return &domain.DuplicateError{Field: "email", Value: in.Email}
	case e.ErrorCode == "phone_exists" || strings.Contains(msg, "phone number has already been registered"):
		return &domain.DuplicateError{Field: "phone", Value: in.Phone}
	}
	return &domain.NetworkError{StatusCode: status, Body: string(raw)}
}

// DeleteUser DELETE /auth/v1/admin/users/{id}.
func (c *AuthClient) DeleteUser(ctx context.Context, id string) error {
	status, raw, err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), c.serviceRoleKey, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrUserNotFound
	}
	if status < 200 || status > 299 {
		return &domain.NetworkError{StatusCode: status, Body: string(raw)}
	}
	return nil
}

// Authenticate POST /auth/v1/token?grant_type=password. 400/401 equivalen a credenciales inválidas.
func (c *AuthClient) Authenticate(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	status, raw, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey, body)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return "", domain.ErrUnauthorized
	case status < 200 || status > 299:
		return "", &domain.NetworkError{StatusCode: status, Body: string(raw)}
	}
	var tok struct {
		User userResponse `json:"user"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("supabase: deserializar token: %w", err)
	}
	if tok.User.ID == "" {
		return "", fmt.Errorf("supabase: token sin usuario")
	}
	return tok.User.ID, nil
}

func (c *AuthClient) do(ctx context.Context, method, path, key string, payload any) (int, []byte, error) {
	if c.baseURL == "" || key == "" {
		return 0, nil, fmt.Errorf("supabase: SUPABASE_URL o clave no configurados")
	}
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("supabase: serializar request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("supabase: crear HTTP request: %w", err)
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, &domain.NetworkError{StatusCode: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, raw, nil
}
