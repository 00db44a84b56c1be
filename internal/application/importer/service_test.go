package importer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/application/provisioning"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeWriter struct {
	written []importer.Record
	err     error
}

func (w *fakeWriter) WriteRecords(_ context.Context, _ importer.DataType, recs []importer.Record) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.written = append(w.written, recs...)
	return len(recs), nil
}

type fakeProvisioner struct {
	people []provisioning.Person
	role   string
	calls  int
}

func (p *fakeProvisioner) BatchCreateAccounts(_ context.Context, people []provisioning.Person, role string) provisioning.BatchResult {
	p.calls++
	p.people, p.role = people, role
	return provisioning.BatchResult{Created: len(people), Summary: "ok"}
}

type fakeEnqueuer struct {
	jobs []importer.ProvisioningJob
}

func (e *fakeEnqueuer) EnqueueProvisioning(_ context.Context, job importer.ProvisioningJob) (string, error) {
	e.jobs = append(e.jobs, job)
	return "job-1", nil
}

type fakeAuditor struct {
	entries []audit.ActionInput
}

func (a *fakeAuditor) LogAction(_ context.Context, _ permission.Session, in audit.ActionInput) bool {
	a.entries = append(a.entries, in)
	return true
}

func (a *fakeAuditor) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc         *importer.Service
	writer      *fakeWriter
	provisioner *fakeProvisioner
	enqueuer    *fakeEnqueuer
	auditor     *fakeAuditor
}

func newFixture() *fixture {
	f := &fixture{
		writer:      &fakeWriter{},
		provisioner: &fakeProvisioner{},
		enqueuer:    &fakeEnqueuer{},
		auditor:     &fakeAuditor{},
	}
	f.svc = importer.NewService(newParser(), f.writer, f.provisioner, f.enqueuer, f.auditor, zerolog.Nop())
	return f
}

func sessionWith(caps ...permission.Capability) permission.Session {
	return permission.NewSession(permission.Principal{UserID: "u-1", Email: "ops@example.com", Name: "运营"}, caps)
}

const salespersonCSV = "姓名,手机号,邮箱,部门\n" +
	"张三,13800000001,zhang@example.com,华北区\n" +
	"李四,,,华南区\n" +
	",13800000003,nobody@example.com,华东区\n"

// ──────────────────────────────────────────────────────────────────────────────
// Permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestImport_SinPermisoDeImportar(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Import(context.Background(), sessionWith(permission.DataExport), csvUpload("c.csv", "姓名\n张三\n"), importer.Customers, importer.Options{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.writer.written)
}

func TestImport_CrearCuentasExigeGestionDeUsuarios(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport),
		csvUpload("s.csv", salespersonCSV), importer.Salespersons, importer.Options{CreateAccounts: true})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.provisioner.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo
// ──────────────────────────────────────────────────────────────────────────────

func TestImport_EscribeSoloFilasSinErrores(t *testing.T) {
	f := newFixture()
	rep, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport),
		csvUpload("s.csv", salespersonCSV), importer.Salespersons, importer.Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TotalRows)
	assert.Equal(t, 2, rep.Imported, "la fila sin nombre no se escribe")
	require.Len(t, f.writer.written, 2)
	assert.Equal(t, "张三", f.writer.written[0]["name"])
	assert.Equal(t, "李四", f.writer.written[1]["name"])
	assert.True(t, importer.HasErrors(rep.Validation, 4))
	assert.Nil(t, rep.Accounts)
	assert.Equal(t, []string{audit.ActionDataImport}, f.auditor.actions())
}

func TestImport_CreaCuentasSincronas(t *testing.T) {
	f := newFixture()
	rep, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport, permission.SystemUserManage),
		csvUpload("s.csv", salespersonCSV), importer.Salespersons, importer.Options{CreateAccounts: true})
	require.NoError(t, err)

	require.Equal(t, 1, f.provisioner.calls)
	assert.Equal(t, entity.RoleSalesperson, f.provisioner.role)
	require.Len(t, f.provisioner.people, 1, "sólo se provisiona quien tiene email o teléfono")
	assert.Equal(t, "zhang@example.com", f.provisioner.people[0].Email)
	assert.Equal(t, "华北区", f.provisioner.people[0].Department)

	require.NotNil(t, rep.Accounts)
	assert.Equal(t, 1, rep.Accounts.Created)
	assert.Equal(t, []string{audit.ActionAccountCreate, audit.ActionDataImport}, f.auditor.actions())
}

func TestImport_CreaCuentasEnSegundoPlano(t *testing.T) {
	f := newFixture()
	rep, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport, permission.SystemUserManage),
		csvUpload("s.csv", salespersonCSV), importer.Salespersons, importer.Options{CreateAccounts: true, Async: true})
	require.NoError(t, err)

	assert.Zero(t, f.provisioner.calls)
	require.Len(t, f.enqueuer.jobs, 1)
	job := f.enqueuer.jobs[0]
	assert.Equal(t, entity.RoleSalesperson, job.Role)
	assert.Equal(t, "u-1", job.ActorID)
	assert.Equal(t, "运营", job.ActorName)
	assert.Len(t, job.People, 1)
	assert.Equal(t, "job-1", rep.JobID)
}

func TestImport_ClientesNoCreanCuentas(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport, permission.SystemUserManage),
		csvUpload("c.csv", "姓名,邮箱,电话\n张三,a@b.cn,13800000000\n"), importer.Customers, importer.Options{CreateAccounts: true})
	require.NoError(t, err)
	assert.Zero(t, f.provisioner.calls)
}

func TestImport_FalloAlEscribir(t *testing.T) {
	f := newFixture()
	f.writer.err = errors.New("relation does not exist")

	_, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport),
		csvUpload("c.csv", "姓名\n张三\n"), importer.Customers, importer.Options{})
	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "写入数据失败", be.Message)

	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, entity.AuditStatusFailure, f.auditor.entries[0].Status)
	assert.Contains(t, f.auditor.entries[0].ErrorMessage, "relation does not exist")
}

func TestImport_FormatoNoSoportado(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Import(context.Background(), sessionWith(permission.DataImport),
		csvUpload("c.txt", "姓名\n张三\n"), importer.Customers, importer.Options{})
	requireFormatError(t, err, "不支持的文件格式: .txt")
	assert.Empty(t, f.auditor.entries, "el rechazo previo al parseo no se audita")
}

func TestPeopleFromRecords_TelefonoNumerico(t *testing.T) {
	people := importer.PeopleFromRecords(importer.Experts, []importer.Record{
		{"name": "王教授", "phone": 13800000000.0, "title": "教授", "field": "人工智能", "organization": "某大学"},
	})
	require.Len(t, people, 1)
	assert.Equal(t, "13800000000", people[0].Phone)
	assert.Equal(t, "教授", people[0].Title)
	assert.Equal(t, "人工智能", people[0].Field)
	assert.Equal(t, "某大学", people[0].Department)
}
