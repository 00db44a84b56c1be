package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/provisioning"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

// RecordWriter escribe los registros válidos en la tabla del tipo de datos. Devuelve cuántos escribió.
type RecordWriter interface {
	WriteRecords(ctx context.Context, dt DataType, records []Record) (int, error)
}

// AccountProvisioner alta síncrona de cuentas.
type AccountProvisioner interface {
	BatchCreateAccounts(ctx context.Context, people []provisioning.Person, role string) provisioning.BatchResult
}

// JobEnqueuer encola el alta de cuentas para el worker. Devuelve el id del trabajo.
type JobEnqueuer interface {
	EnqueueProvisioning(ctx context.Context, job ProvisioningJob) (string, error)
}

// ProvisioningJob trabajo de alta masiva ejecutado por el worker.
type ProvisioningJob struct {
	People    []provisioning.Person `json:"people"`
	Role      string                `json:"role"`
	ActorID   string                `json:"actor_id"`
	ActorName string                `json:"actor_name"`
	Email     string                `json:"email"`
}

// Auditor registra acciones sin interrumpir el flujo.
type Auditor interface {
	LogAction(ctx context.Context, sess permission.Session, in audit.ActionInput) bool
}

// Options opciones de la importación.
type Options struct {
	CreateAccounts bool
	Async          bool
}

// Report resultado de la importación.
type Report struct {
	DataType   DataType                  `json:"data_type"`
	TotalRows  int                       `json:"total_rows"`
	Imported   int                       `json:"imported"`
	Validation []ValidationResult        `json:"validation"`
	Accounts   *provisioning.BatchResult `json:"accounts,omitempty"`
	JobID      string                    `json:"job_id,omitempty"`
}

// Service orquesta la importación: validar archivo, parsear, validar filas, escribir, crear cuentas, auditar.
type Service struct {
	parser      *Parser
	writer      RecordWriter
	provisioner AccountProvisioner
	enqueuer    JobEnqueuer
	auditor     Auditor
	log         zerolog.Logger
}

// NewService construye el servicio. enqueuer puede ser nil (sin modo asíncrono).
func NewService(parser *Parser, writer RecordWriter, provisioner AccountProvisioner, enqueuer JobEnqueuer, auditor Auditor, log zerolog.Logger) *Service {
	return &Service{parser: parser, writer: writer, provisioner: provisioner, enqueuer: enqueuer, auditor: auditor, log: log}
}

// Import ejecuta la importación completa de un archivo.
func (s *Service) Import(ctx context.Context, sess permission.Session, file Upload, dt DataType, opts Options) (*Report, error) {
	if !sess.HasPermission(permission.DataImport) {
		return nil, domain.ErrForbidden
	}
	if opts.CreateAccounts && !sess.HasPermission(permission.SystemUserManage) {
		return nil, domain.ErrForbidden
	}
	if err := ValidateUpload(file.Name, file.Size); err != nil {
		return nil, err
	}

	rows, err := s.parser.ParseRows(ctx, file, dt)
	if err != nil {
		s.auditFailure(ctx, sess, dt, file.Name, err)
		return nil, err
	}

	report := &Report{DataType: dt, TotalRows: len(rows)}
	report.Validation = ValidateRows(dt, rows)
	if report.Validation == nil {
		report.Validation = []ValidationResult{}
	}

	rejected := ErrorLines(report.Validation)
	valid := make([]Record, 0, len(rows))
	for _, r := range rows {
		if !rejected[r.Line] {
			valid = append(valid, r.Record)
		}
	}

	if len(valid) > 0 {
		n, err := s.writer.WriteRecords(ctx, dt, valid)
		if err != nil {
			s.auditFailure(ctx, sess, dt, file.Name, err)
			return nil, &domain.BackendError{Op: "importar " + string(dt), Message: "写入数据失败", Err: err}
		}
		report.Imported = n
	}

	if opts.CreateAccounts && dt.AccountBearing() {
		people := PeopleFromRecords(dt, valid)
		eligible := make([]provisioning.Person, 0, len(people))
		for _, i := range provisioning.IdentifyAccountCreationNeeds(people) {
			eligible = append(eligible, people[i])
		}
		if err := s.provision(ctx, sess, dt, eligible, opts.Async, report); err != nil {
			return nil, err
		}
	}

	details := map[string]any{
		"file_name":  file.Name,
		"total_rows": report.TotalRows,
		"imported":   report.Imported,
	}
	if report.Accounts != nil {
		details["accounts_summary"] = report.Accounts.Summary
	}
	if report.JobID != "" {
		details["job_id"] = report.JobID
	}
	s.auditor.LogAction(ctx, sess, audit.ActionInput{
		Action:       audit.ActionDataImport,
		ResourceType: string(dt),
		Details:      details,
	})

	s.log.Info().
		Str("data_type", string(dt)).
		Str("actor_id", sess.UserID).
		Int("rows", report.TotalRows).
		Int("imported", report.Imported).
		Msg("importación finalizada")
	return report, nil
}

func (s *Service) provision(ctx context.Context, sess permission.Session, dt DataType, people []provisioning.Person, async bool, report *Report) error {
	if len(people) == 0 {
		return nil
	}
	role := dt.AccountRole()
	if async && s.enqueuer != nil {
		id, err := s.enqueuer.EnqueueProvisioning(ctx, ProvisioningJob{
			People:    people,
			Role:      role,
			ActorID:   sess.UserID,
			ActorName: sess.DisplayName(),
			Email:     sess.Email,
		})
		if err != nil {
			return &domain.BackendError{Op: "encolar altas", Message: "创建账号任务提交失败", Err: err}
		}
		report.JobID = id
		return nil
	}
	res := s.provisioner.BatchCreateAccounts(ctx, people, role)
	report.Accounts = &res
	s.auditor.LogAction(ctx, sess, audit.ActionInput{
		Action:       audit.ActionAccountCreate,
		ResourceType: audit.ResourceUser,
		Details: map[string]any{
			"role":    role,
			"created": res.Created,
			"skipped": res.Skipped,
			"failed":  res.Failed,
			"summary": res.Summary,
		},
	})
	return nil
}

func (s *Service) auditFailure(ctx context.Context, sess permission.Session, dt DataType, name string, err error) {
	s.auditor.LogAction(ctx, sess, audit.ActionInput{
		Action:       audit.ActionDataImport,
		ResourceType: string(dt),
		Details:      map[string]any{"file_name": name},
		Status:       entity.AuditStatusFailure,
		ErrorMessage: err.Error(),
	})
}

// PeopleFromRecords convierte registros de tipos con cuentas en personas a provisionar.
func PeopleFromRecords(dt DataType, records []Record) []provisioning.Person {
	out := make([]provisioning.Person, 0, len(records))
	for _, r := range records {
		p := provisioning.Person{
			Name:     r.String("name"),
			Email:    r.String("email"),
			Phone:    phoneText(r["phone"]),
			Position: r.String("position"),
		}
		switch dt {
		case Salespersons:
			p.Department = r.String("department")
			p.Team = r.String("team")
		case Experts:
			p.Title = r.String("title")
			p.Field = r.String("field")
			p.Department = r.String("organization")
		}
		out = append(out, p)
	}
	return out
}

// phoneText tolera teléfonos guardados como número en la hoja.
func phoneText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return ""
	}
}
