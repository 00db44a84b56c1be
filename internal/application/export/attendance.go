package export

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// UnassignedGroup grupo de participantes sin vendedor responsable.
const UnassignedGroup = "未分配业务员"

// MaxSheetNameLen límite de caracteres del nombre de hoja en Excel.
const MaxSheetNameLen = 31

var attendanceHeaders = []string{"参训人", "单位/公司", "负责业务员", "签名"}

var attendanceWidths = []float64{16, 32, 16, 24}

// ExportAll hoja de firmas con todos los participantes en una sola hoja.
func (s *Service) ExportAll(cfg AttendanceConfig) (*File, error) {
	sheet := attendanceSheet("签到表", attendanceTitle(cfg.CourseName, ""), cfg, cfg.Participants, totalCount(cfg))
	data, err := s.renderer.RenderXLSX(Workbook{Sheets: []Sheet{sheet}})
	if err != nil {
		return nil, fmt.Errorf("export: generar hoja de firmas: %w", err)
	}
	return &File{Name: AttendanceFileName(cfg, ".xlsx"), ContentType: ContentTypeXLSX, Data: data}, nil
}

// ExportBySalesperson una hoja por vendedor, en orden de primera aparición.
func (s *Service) ExportBySalesperson(cfg AttendanceConfig) (*File, error) {
	groups := GroupBySalesperson(cfg.Participants)
	wb := Workbook{Sheets: make([]Sheet, 0, len(groups))}
	used := make(map[string]bool, len(groups))
	for _, g := range groups {
		name := uniqueSheetName(SanitizeSheetName(g.Salesperson), used)
		wb.Sheets = append(wb.Sheets,
			attendanceSheet(name, attendanceTitle(cfg.CourseName, g.Salesperson), cfg, g.Participants, len(g.Participants)))
	}
	if len(wb.Sheets) == 0 {
		wb.Sheets = append(wb.Sheets, attendanceSheet("签到表", attendanceTitle(cfg.CourseName, ""), cfg, nil, 0))
	}
	data, err := s.renderer.RenderXLSX(wb)
	if err != nil {
		return nil, fmt.Errorf("export: generar hoja de firmas por vendedor: %w", err)
	}
	return &File{Name: AttendanceFileName(cfg, ".xlsx"), ContentType: ContentTypeXLSX, Data: data}, nil
}

// ExportAllPDF misma hoja de firmas que ExportAll, en PDF.
func (s *Service) ExportAllPDF(cfg AttendanceConfig) (*File, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("export: generador PDF no configurado")
	}
	sheet := attendanceSheet("签到表", attendanceTitle(cfg.CourseName, ""), cfg, cfg.Participants, totalCount(cfg))
	data, err := s.pdf.RenderPDF(sheet)
	if err != nil {
		return nil, fmt.Errorf("export: generar PDF: %w", err)
	}
	return &File{Name: AttendanceFileName(cfg, ".pdf"), ContentType: ContentTypePDF, Data: data}, nil
}

// Group participantes de un mismo vendedor.
type Group struct {
	Salesperson  string
	Participants []Participant
}

// GroupBySalesperson agrupa conservando el orden de primera aparición.
func GroupBySalesperson(ps []Participant) []Group {
	idx := make(map[string]int)
	var out []Group
	for _, p := range ps {
		key := strings.TrimSpace(p.SalespersonName)
		if key == "" {
			key = UnassignedGroup
		}
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, Group{Salesperson: key})
		}
		out[i].Participants = append(out[i].Participants, p)
	}
	return out
}

// SanitizeSheetName elimina los caracteres prohibidos por Excel y trunca a 31 caracteres.
func SanitizeSheetName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '?', '*', '[', ']', ':':
			return -1
		}
		return r
	}, name)
	clean = strings.TrimSpace(clean)
	// Excel tampoco admite apóstrofo al inicio o al final.
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Sheet"
	}
	return truncateRunes(clean, MaxSheetNameLen)
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("(%d)", n)
		candidate = truncateRunes(name, MaxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// AttendanceFileName <curso>_签到表_<fecha><ext>.
func AttendanceFileName(cfg AttendanceConfig, ext string) string {
	return fmt.Sprintf("%s_签到表_%s%s", sanitizeFileName(cfg.CourseName), cfg.StartDate, ext)
}

func sanitizeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "培训"
	}
	return s
}

func attendanceTitle(course, salesperson string) string {
	if salesperson == "" {
		return fmt.Sprintf("%s 签到表", course)
	}
	return fmt.Sprintf("%s 签到表（%s）", course, salesperson)
}

func attendanceSummary(cfg AttendanceConfig, count int) string {
	dates := cfg.StartDate
	if cfg.EndDate != "" && cfg.EndDate != cfg.StartDate {
		dates = cfg.StartDate + " 至 " + cfg.EndDate
	}
	return fmt.Sprintf("课程：%s　日期：%s　人数：%d", cfg.CourseName, dates, count)
}

func totalCount(cfg AttendanceConfig) int {
	if cfg.TotalCount > 0 {
		return cfg.TotalCount
	}
	return len(cfg.Participants)
}

func attendanceSheet(name, title string, cfg AttendanceConfig, ps []Participant, count int) Sheet {
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{
			strings.TrimSpace(p.Name),
			strings.TrimSpace(p.Company),
			strings.TrimSpace(p.SalespersonName),
			"", // firma a mano sobre el papel
		})
	}
	return Sheet{
		Name:    name,
		Title:   title,
		Summary: attendanceSummary(cfg, count),
		Headers: attendanceHeaders,
		Rows:    rows,
		Widths:  attendanceWidths,
	}
}
