package domain

import (
	"regexp"
	"strings"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

// ValidEmail formato local@dominio.tld.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidMobile móvil de China continental: 11 dígitos, empieza por 1 y el segundo dígito es 3-9.
func ValidMobile(s string) bool {
	return mobileRe.MatchString(strings.TrimSpace(s))
}
