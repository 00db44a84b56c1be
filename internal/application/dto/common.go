package dto

// Límites de paginación de los listados.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageRequest paginación por desplazamiento.
type PageRequest struct {
	Limit  int
	Offset int
}

// NewPageRequest normaliza los valores recibidos en la query.
func NewPageRequest(limit, offset int) PageRequest {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return PageRequest{Limit: limit, Offset: offset}
}

// Response metadatos de la página servida. total < 0 lo omite.
func (p PageRequest) Response(total int) PageResponse {
	r := PageResponse{Limit: p.Limit, Offset: p.Offset}
	if total >= 0 {
		r.Total = &total
	}
	return r
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
	Total  *int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Details enumera campos inválidos en errores de validación.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
