package importer

import (
	"fmt"

	"github.com/jhoicas/training-crm-api/internal/domain"
)

// Severidad de un resultado de validación.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationResult observación sobre una celda. Row es la línea del archivo (cabecera = 1).
type ValidationResult struct {
	Row      int    `json:"row"`
	Column   string `json:"column"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Value    any    `json:"value,omitempty"`
}

// ValidateRecords valida registros sin número de línea; asume que no hubo filas en blanco intermedias.
func ValidateRecords(dt DataType, records []Record) []ValidationResult {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{Line: i + 2, Record: r}
	}
	return ValidateRows(dt, rows)
}

// ValidateRows aplica las reglas de negocio a las filas parseadas.
// Campos obligatorios ausentes son errores (la fila no se escribe); formatos dudosos son advertencias.
func ValidateRows(dt DataType, rows []Row) []ValidationResult {
	var out []ValidationResult
	for _, row := range rows {
		out = append(out, validateRow(dt, row)...)
	}
	return out
}

func validateRow(dt DataType, row Row) []ValidationResult {
	var out []ValidationResult
	add := func(f Field, msg, sev string, v any) {
		out = append(out, ValidationResult{Row: row.Line, Column: f.Label, Message: msg, Severity: sev, Value: v})
	}

	for _, f := range dt.Fields() {
		v, present := row.Record[f.Key], row.Record.Present(f.Key)
		if !present {
			if f.Required {
				add(f, fmt.Sprintf("%s不能为空", f.Label), SeverityError, nil)
			}
			continue
		}
		s, isString := v.(string)
		switch f.Type {
		case FieldNumber:
			if isString {
				add(f, "数字格式不正确", SeverityWarning, v)
			}
		case FieldBool:
			if isString {
				add(f, "无法识别的是/否值", SeverityWarning, v)
			}
		case FieldDate:
			if isString && !IsNormalizedDate(s) {
				add(f, "日期格式不正确", SeverityWarning, v)
			}
		case FieldTime:
			if isString && !IsNormalizedTime(s) {
				add(f, "时间格式不正确", SeverityWarning, v)
			}
		}
		switch f.Key {
		case "email":
			if isString && !domain.ValidEmail(s) {
				add(f, "邮箱格式不正确", SeverityWarning, v)
			}
		case "phone":
			if isString && dt.AccountBearing() && !domain.ValidMobile(s) {
				add(f, "手机号格式不正确", SeverityWarning, v)
			}
		}
	}

	if dt.AccountBearing() {
		for _, key := range []string{"email", "phone"} {
			if !row.Record.Present(key) {
				f, _ := dt.FieldByKey(key)
				add(f, fmt.Sprintf("缺少%s，无法创建账号", f.Label), SeverityWarning, nil)
			}
		}
	}
	return out
}

// ErrorLines líneas con al menos un error, en una sola pasada.
func ErrorLines(results []ValidationResult) map[int]bool {
	lines := make(map[int]bool)
	for _, r := range results {
		if r.Severity == SeverityError {
			lines[r.Row] = true
		}
	}
	return lines
}

// HasErrors indica si alguna observación de la línea es un error.
func HasErrors(results []ValidationResult, line int) bool {
	for _, r := range results {
		if r.Row == line && r.Severity == SeverityError {
			return true
		}
	}
	return false
}
