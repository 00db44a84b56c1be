package provisioning

import "strings"

// Summary conteo de registros según los datos de contacto disponibles.
type Summary struct {
	Total     int `json:"total"`
	EmailOnly int `json:"email_only"`
	PhoneOnly int `json:"phone_only"`
	Both      int `json:"both"`
	Neither   int `json:"neither"`
	Valid     int `json:"valid"`
}

// IdentifyAccountCreationNeeds devuelve los índices de las personas con email o teléfono.
func IdentifyAccountCreationNeeds(people []Person) []int {
	var out []int
	for i, p := range people {
		if strings.TrimSpace(p.Email) != "" || strings.TrimSpace(p.Phone) != "" {
			out = append(out, i)
		}
	}
	return out
}

// GenerateAccountCreationSummary cuenta cuántas personas tienen email, teléfono, ambos o ninguno.
// Valid son las que tienen ambos, requisito para el alta.
func GenerateAccountCreationSummary(people []Person) Summary {
	s := Summary{Total: len(people)}
	for _, p := range people {
		hasEmail := strings.TrimSpace(p.Email) != ""
		hasPhone := strings.TrimSpace(p.Phone) != ""
		switch {
		case hasEmail && hasPhone:
			s.Both++
		case hasEmail:
			s.EmailOnly++
		case hasPhone:
			s.PhoneOnly++
		default:
			s.Neither++
		}
	}
	s.Valid = s.Both
	return s
}
