package permission

// HasPermission true si c está concedida. Comparación exacta, sin normalizar mayúsculas.
func (s Session) HasPermission(c Capability) bool {
	_, ok := s.granted[c]
	return ok
}

// HasAnyPermission true si al menos una de cs está concedida. Lista vacía: false.
func (s Session) HasAnyPermission(cs ...Capability) bool {
	for _, c := range cs {
		if s.HasPermission(c) {
			return true
		}
	}
	return false
}

// HasAllPermissions true si todas las de cs están concedidas. Lista vacía: true.
func (s Session) HasAllPermissions(cs ...Capability) bool {
	for _, c := range cs {
		if !s.HasPermission(c) {
			return false
		}
	}
	return true
}

// Missing devuelve las capacidades de cs que no están concedidas, en el orden recibido.
func (s Session) Missing(cs ...Capability) []Capability {
	var out []Capability
	for _, c := range cs {
		if !s.HasPermission(c) {
			out = append(out, c)
		}
	}
	return out
}
