package entity

import "time"

// Roles válidos para UserProfile.
const (
	RoleAdmin       = "admin"
	RoleSalesperson = "salesperson"
	RoleExpert      = "expert"
)

// Estados de usuario. Los usuarios nunca se eliminan físicamente.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// UserProfile fila de user_profiles, creada por el trigger del backend al registrar la identidad.
type UserProfile struct {
	ID         string
	Email      string
	Name       string
	Phone      string
	Role       string // admin, salesperson, expert
	Department string
	Position   string
	Team       string
	Title      string
	Field      string
	Status     string // active, inactive
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive indica si el usuario puede iniciar sesión.
func (u *UserProfile) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// DisplayName nombre a mostrar: nombre, luego email, luego id.
func (u *UserProfile) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// ValidRole indica si role es uno de los roles del sistema.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSalesperson || role == RoleExpert
}
