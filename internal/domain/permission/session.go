package permission

import "sort"

// Principal identidad del usuario autenticado.
type Principal struct {
	UserID     string
	Email      string
	Name       string
	Role       string
	Department string
}

// Session contexto explícito de una petición: identidad más capacidades concedidas.
// Se construye una vez por petición y se pasa a los servicios; es inmutable.
type Session struct {
	Principal
	granted map[Capability]struct{}
}

// NewSession construye la sesión. Las capacidades se copian; duplicados se ignoran.
func NewSession(p Principal, caps []Capability) Session {
	granted := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		granted[c] = struct{}{}
	}
	return Session{Principal: p, granted: granted}
}

// Anonymous sesión sin identidad ni capacidades.
func Anonymous() Session {
	return Session{}
}

// IsAuthenticated indica si la sesión pertenece a un usuario.
func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// DisplayName nombre del actor: nombre, luego email, luego id.
func (s Session) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Email != "":
		return s.Email
	default:
		return s.UserID
	}
}

// Capabilities devuelve las capacidades concedidas, ordenadas.
func (s Session) Capabilities() []Capability {
	out := make([]Capability, 0, len(s.granted))
	for c := range s.granted {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
