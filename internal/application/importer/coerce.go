package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Origen de los seriales de fecha de las hojas de cálculo (compatible con el bug de 1900 de Excel).
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	dateRe   = regexp.MustCompile(`^(\d{4})\s*[-/.年]\s*(\d{1,2})\s*[-/.月]\s*(\d{1,2})\s*日?(?:[ T].*)?$`)
	timeRe   = regexp.MustCompile(`^(\d{1,2})\s*[:：]\s*(\d{2})(?:\s*[:：]\s*(\d{2}))?$`)
	serialRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Coerce convierte el texto de una celda según el tipo del campo.
// Vacío (tras recortar) devuelve nil. Lo que no se puede convertir se devuelve como string recortado.
func Coerce(t FieldType, raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	switch t {
	case FieldNumber:
		if n, ok := parseNumber(s); ok {
			return n
		}
	case FieldBool:
		if b, ok := parseBool(s); ok {
			return b
		}
	case FieldList:
		return parseList(s)
	case FieldDate:
		if d, ok := parseDate(s); ok {
			return d
		}
	case FieldTime:
		if tm, ok := parseTime(s); ok {
			return tm
		}
	}
	return s
}

// IsNormalizedDate indica si s ya es una fecha YYYY-MM-DD de calendario válida.
func IsNormalizedDate(s string) bool {
	d, ok := parseDate(s)
	return ok && d == s
}

// IsNormalizedTime indica si s ya es una hora HH:MM válida.
func IsNormalizedTime(s string) bool {
	tm, ok := parseTime(s)
	return ok && tm == s
}

// parseNumber admite separadores de miles ("1,234.5"): las celdas con formato llegan así.
func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "是", "1", "yes":
		return true, true
	case "false", "否", "0", "no":
		return false, true
	}
	return false, false
}

func parseList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate normaliza a YYYY-MM-DD.
func parseDate(s string) (string, bool) {
	if serialRe.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 1 || f > 2958465 {
			return "", false
		}
		d := spreadsheetEpoch.AddDate(0, 0, int(math.Floor(f)))
		return d.Format("2006-01-02"), true
	}
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normaliza 2026-02-30 a marzo: se rechaza.
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// parseTime normaliza a HH:MM. Acepta fracciones de día (0.375 = 09:00).
func parseTime(s string) (string, bool) {
	if serialRe.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", false
		}
		frac := f - math.Floor(f)
		if f >= 1 && frac == 0 {
			// Entero >= 1: es un serial de fecha, no una hora.
			return "", false
		}
		mins := int(math.Round(frac * 24 * 60))
		if mins == 24*60 {
			mins = 0
		}
		return fmt.Sprintf("%02d:%02d", mins/60, mins%60), true
	}
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	if h > 23 || mi > 59 {
		return "", false
	}
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return "", false
		}
	}
	return fmt.Sprintf("%02d:%02d", h, mi), true
}
