package ports

import "context"

// NewIdentity datos para registrar una identidad en el proveedor de autenticación.
// Metadata viaja a user_metadata y el trigger del backend la copia a user_profiles.
type NewIdentity struct {
	Email    string
	Phone    string
	Password string
	Metadata IdentityMetadata
}

// IdentityMetadata perfil inicial de la cuenta.
type IdentityMetadata struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Team       string `json:"team,omitempty"`
	Title      string `json:"title,omitempty"`
	Field      string `json:"field,omitempty"`
}

// IdentityProvider puerto de salida hacia el proveedor de identidades (Supabase Auth o almacén local).
type IdentityProvider interface {
	// CreateUser registra la identidad y devuelve su id.
	CreateUser(ctx context.Context, in NewIdentity) (string, error)
	// DeleteUser elimina una identidad; se usa para compensar altas huérfanas.
	DeleteUser(ctx context.Context, id string) error
}

// Authenticator verifica credenciales y devuelve el id del usuario.
// Credenciales inválidas deben devolver domain.ErrUnauthorized.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}
