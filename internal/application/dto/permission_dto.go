package dto

// SetPermissionsRequest conjunto completo de capacidades del usuario (reemplaza el anterior).
type SetPermissionsRequest struct {
	Capabilities []string `json:"capabilities" validate:"dive,required"`
}

// PermissionsResponse capacidades concedidas a un usuario, ordenadas.
type PermissionsResponse struct {
	UserID       string   `json:"user_id"`
	Capabilities []string `json:"capabilities"`
}

// CapabilityResponse entrada del catálogo.
type CapabilityResponse struct {
	Capability string `json:"capability"`
	Label      string `json:"label"`
}

// CatalogGroupResponse capacidades de un grupo funcional.
type CatalogGroupResponse struct {
	Group        string               `json:"group"`
	Capabilities []CapabilityResponse `json:"capabilities"`
}
