// Package export genera los archivos descargables: hojas de firmas de cursos,
// exportaciones de datos y plantillas de importación.
package export

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// MaxExportRows límite de filas por exportación de datos.
const MaxExportRows = 10000

// Auditor registra acciones sin interrumpir el flujo.
type Auditor interface {
	LogAction(ctx context.Context, sess permission.Session, in audit.ActionInput) bool
}

// Service exportadores.
type Service struct {
	renderer  WorkbookRenderer
	pdf       PDFRenderer
	source    RecordSource
	trainings repository.TrainingRepository
	auditor   Auditor
	now       func() time.Time
}

// NewService construye el servicio. pdf, source, trainings y auditor pueden ser nil
// si el binario no usa esas exportaciones.
func NewService(renderer WorkbookRenderer, pdf PDFRenderer, source RecordSource, trainings repository.TrainingRepository, auditor Auditor) *Service {
	return &Service{renderer: renderer, pdf: pdf, source: source, trainings: trainings, auditor: auditor, now: time.Now}
}

// ExportTemplate plantilla de importación: sólo la fila de cabeceras.
func (s *Service) ExportTemplate(dt importer.DataType) (*File, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: tipo de datos %q", domain.ErrInvalidInput, dt)
	}
	data, err := s.renderer.RenderXLSX(Workbook{Sheets: []Sheet{{Name: dt.Label(), Headers: dt.Labels()}}})
	if err != nil {
		return nil, fmt.Errorf("export: generar plantilla: %w", err)
	}
	return &File{Name: fmt.Sprintf("%s导入模板.xlsx", dt.Label()), ContentType: ContentTypeXLSX, Data: data}, nil
}

// ExportRecords libro con las filas dadas usando las etiquetas chinas del tipo de datos.
// Las claves no reconocidas se agregan al final, ordenadas.
func (s *Service) ExportRecords(dt importer.DataType, records []importer.Record) (*File, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: tipo de datos %q", domain.ErrInvalidInput, dt)
	}
	fields := dt.Fields()
	known := make(map[string]bool, len(fields))
	keys := make([]string, 0, len(fields))
	headers := make([]string, 0, len(fields))
	for _, f := range fields {
		known[f.Key] = true
		keys = append(keys, f.Key)
		headers = append(headers, f.Label)
	}
	var extra []string
	seen := map[string]bool{}
	for _, r := range records {
		for k := range r {
			if !known[k] && !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)
	headers = append(headers, extra...)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = FormatValue(r[k])
		}
		rows = append(rows, row)
	}

	data, err := s.renderer.RenderXLSX(Workbook{Sheets: []Sheet{{Name: dt.Label(), Headers: headers, Rows: rows}}})
	if err != nil {
		return nil, fmt.Errorf("export: generar datos: %w", err)
	}
	name := fmt.Sprintf("%s数据_%s.xlsx", dt.Label(), s.now().Format("20060102"))
	return &File{Name: name, ContentType: ContentTypeXLSX, Data: data}, nil
}

// ExportDataType lee las filas del backend y genera la exportación, auditando la acción.
func (s *Service) ExportDataType(ctx context.Context, sess permission.Session, dt importer.DataType) (*File, error) {
	if !CanExport(sess, dt) {
		return nil, domain.ErrForbidden
	}
	if s.source == nil {
		return nil, fmt.Errorf("export: origen de datos no configurado")
	}
	records, err := s.source.ListRecords(ctx, dt, MaxExportRows)
	if err != nil {
		return nil, &domain.BackendError{Op: "exportar " + string(dt), Message: "读取数据失败", Err: err}
	}
	file, err := s.ExportRecords(dt, records)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, sess, audit.ActionInput{
		Action:       audit.ActionDataExport,
		ResourceType: string(dt),
		Details:      map[string]any{"rows": len(records), "file_name": file.Name},
	})
	return file, nil
}

// CanExport exportar exige data_export o el permiso de exportación específico del tipo.
func CanExport(sess permission.Session, dt importer.DataType) bool {
	switch dt {
	case importer.Customers:
		return sess.HasAnyPermission(permission.DataExport, permission.CustomerExport)
	case importer.Trainings:
		return sess.HasAnyPermission(permission.DataExport, permission.TrainingExport)
	default:
		return sess.HasPermission(permission.DataExport)
	}
}

// AttendanceForTraining arma la configuración de la hoja de firmas desde la base de datos.
func (s *Service) AttendanceForTraining(ctx context.Context, trainingID string) (*AttendanceConfig, error) {
	if s.trainings == nil {
		return nil, fmt.Errorf("export: repositorio de cursos no configurado")
	}
	t, err := s.trainings.GetByID(ctx, trainingID)
	if err != nil {
		return nil, &domain.BackendError{Op: "cargar curso", Message: "读取培训失败", Err: err}
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	ps, err := s.trainings.ListParticipants(ctx, trainingID)
	if err != nil {
		return nil, &domain.BackendError{Op: "cargar participantes", Message: "读取参训人员失败", Err: err}
	}
	cfg := &AttendanceConfig{
		CourseName:   t.Name,
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		TotalCount:   len(ps),
		Participants: make([]Participant, 0, len(ps)),
	}
	for _, p := range ps {
		cfg.Participants = append(cfg.Participants, Participant{
			Name:            p.Name,
			SalespersonName: p.SalespersonName,
			Company:         p.Company,
		})
	}
	return cfg, nil
}

// AuditAttendance registra la descarga de una hoja de firmas.
func (s *Service) AuditAttendance(ctx context.Context, sess permission.Session, trainingID string, file *File) {
	s.audit(ctx, sess, audit.ActionInput{
		Action:       audit.ActionDataExport,
		ResourceType: audit.ResourceTraining,
		ResourceID:   trainingID,
		Details:      map[string]any{"file_name": file.Name, "kind": "attendance"},
	})
}

func (s *Service) audit(ctx context.Context, sess permission.Session, in audit.ActionInput) {
	if s.auditor != nil {
		s.auditor.LogAction(ctx, sess, in)
	}
}

// FormatValue representación textual de un valor de registro para la hoja de cálculo.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "是"
		}
		return "否"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04")
	case []string:
		return strings.Join(t, "，")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, FormatValue(e))
		}
		return strings.Join(parts, "，")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
