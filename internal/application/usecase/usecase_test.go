package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/usecase"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type memProfiles struct {
	byID     map[string]*entity.UserProfile
	statuses map[string]string
}

func newProfiles(users ...*entity.UserProfile) *memProfiles {
	m := &memProfiles{byID: map[string]*entity.UserProfile{}, statuses: map[string]string{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*entity.UserProfile, error) {
	return m.byID[id], nil
}
func (m *memProfiles) GetByEmail(context.Context, string) (*entity.UserProfile, error) {
	return nil, nil
}
func (m *memProfiles) EmailExists(context.Context, string) (bool, error) { return false, nil }
func (m *memProfiles) PhoneExists(context.Context, string) (bool, error) { return false, nil }
func (m *memProfiles) List(_ context.Context, role string, _, _ int) ([]*entity.UserProfile, error) {
	var out []*entity.UserProfile
	for _, u := range m.byID {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}
func (m *memProfiles) UpdateStatus(_ context.Context, id, status string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	m.statuses[id] = status
	return nil
}

type memPerms struct {
	byUser    map[string][]string
	grantedBy string
}

func (m *memPerms) ListByUser(_ context.Context, id string) ([]string, error) {
	return append([]string(nil), m.byUser[id]...), nil
}
func (m *memPerms) ReplaceForUser(_ context.Context, id string, caps []string, by string) error {
	m.byUser[id] = caps
	m.grantedBy = by
	return nil
}

type spyAuditor struct {
	inputs       []audit.ActionInput
	participants []string
}

func (s *spyAuditor) LogAction(_ context.Context, _ permission.Session, in audit.ActionInput) bool {
	s.inputs = append(s.inputs, in)
	return true
}

func (s *spyAuditor) LogParticipantUpdate(_ context.Context, _ permission.Session, id string, _, _ map[string]any) bool {
	s.participants = append(s.participants, id)
	return true
}

type memCustomers struct {
	items    []*entity.Customer
	lastFilt repository.CustomerFilter
}

func (m *memCustomers) List(_ context.Context, f repository.CustomerFilter, _, _ int) ([]*entity.Customer, error) {
	m.lastFilt = f
	var out []*entity.Customer
	for _, c := range m.items {
		if f.SalespersonName == "" || c.SalespersonName == f.SalespersonName {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCustomers) Count(ctx context.Context, f repository.CustomerFilter) (int, error) {
	l, _ := m.List(ctx, f, 0, 0)
	return len(l), nil
}

type memTrainings struct {
	sessions map[string]*entity.TrainingSession
	parts    map[string]*entity.Participant
	updates  int
}

func (m *memTrainings) GetByID(_ context.Context, id string) (*entity.TrainingSession, error) {
	return m.sessions[id], nil
}
func (m *memTrainings) ListParticipants(_ context.Context, id string) ([]*entity.Participant, error) {
	var out []*entity.Participant
	for _, p := range m.parts {
		if p.TrainingID == id {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *memTrainings) GetParticipant(_ context.Context, id string) (*entity.Participant, error) {
	p, ok := m.parts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (m *memTrainings) UpdateParticipant(_ context.Context, p *entity.Participant) error {
	m.updates++
	m.parts[p.ID] = p
	return nil
}

func session(id, name, role string, caps ...permission.Capability) permission.Session {
	return permission.NewSession(permission.Principal{UserID: id, Name: name, Role: role}, caps)
}

// ──────────────────────────────────────────────────────────────────────────────
// Permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestSetUserPermissions_ReemplazaYAudita(t *testing.T) {
	profiles := newProfiles(&entity.UserProfile{ID: "u-2", Name: "李四", Role: entity.RoleSalesperson})
	perms := &memPerms{byUser: map[string][]string{"u-2": {"customer_view"}}}
	aud := &spyAuditor{}
	uc := usecase.NewPermissionUseCase(perms, profiles, aud)
	admin := session("u-1", "管理员", entity.RoleAdmin, permission.SystemPermissionManage)

	out, err := uc.SetUserPermissions(context.Background(), admin, "u-2", []string{"training_view", "customer_add", "training_view"})
	require.NoError(t, err)
	assert.Equal(t, []string{"customer_add", "training_view"}, out.Capabilities, "ordenadas y sin duplicados")
	assert.Equal(t, "u-1", perms.grantedBy)

	require.Len(t, aud.inputs, 1)
	assert.Equal(t, audit.ActionPermissionUpdate, aud.inputs[0].Action)
	assert.Equal(t, []string{"customer_view"}, aud.inputs[0].Details["before"])
}

func TestSetUserPermissions_CapacidadDesconocidaNoEscribe(t *testing.T) {
	profiles := newProfiles(&entity.UserProfile{ID: "u-2"})
	perms := &memPerms{byUser: map[string][]string{"u-2": {"customer_view"}}}
	uc := usecase.NewPermissionUseCase(perms, profiles, &spyAuditor{})
	admin := session("u-1", "管理员", entity.RoleAdmin, permission.SystemPermissionManage)

	_, err := uc.SetUserPermissions(context.Background(), admin, "u-2", []string{"customer_view", "root_access"})
	assert.ErrorIs(t, err, domain.ErrUnknownCapability)
	assert.Equal(t, []string{"customer_view"}, perms.byUser["u-2"], "el conjunto previo no cambia")
}

func TestSetUserPermissions_SinCapacidad(t *testing.T) {
	uc := usecase.NewPermissionUseCase(&memPerms{byUser: map[string][]string{}}, newProfiles(), &spyAuditor{})
	_, err := uc.SetUserPermissions(context.Background(), session("u-1", "x", entity.RoleAdmin), "u-2", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "el rol admin no concede nada por sí solo")
}

func TestGetUserPermissions_UsuarioInexistente(t *testing.T) {
	uc := usecase.NewPermissionUseCase(&memPerms{byUser: map[string][]string{}}, newProfiles(), &spyAuditor{})
	admin := session("u-1", "管理员", entity.RoleAdmin, permission.SystemPermissionManage)
	_, err := uc.GetUserPermissions(context.Background(), admin, "u-404")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCatalog_OrdenDeGrupos(t *testing.T) {
	uc := usecase.NewPermissionUseCase(nil, nil, nil)
	groups := uc.Catalog()
	require.Len(t, groups, len(permission.Groups()))
	assert.Equal(t, permission.GroupCustomer, groups[0].Group)
	assert.Equal(t, "customer_view", groups[0].Capabilities[0].Capability)
}

// ──────────────────────────────────────────────────────────────────────────────
// Usuarios
// ──────────────────────────────────────────────────────────────────────────────

func TestDeactivate(t *testing.T) {
	profiles := newProfiles(
		&entity.UserProfile{ID: "u-1", Role: entity.RoleAdmin},
		&entity.UserProfile{ID: "u-2", Role: entity.RoleSalesperson},
	)
	aud := &spyAuditor{}
	uc := usecase.NewUserUseCase(profiles, &memPerms{byUser: map[string][]string{}}, aud)
	admin := session("u-1", "管理员", entity.RoleAdmin, permission.SystemUserManage)

	require.NoError(t, uc.Deactivate(context.Background(), admin, "u-2"))
	assert.Equal(t, entity.UserStatusInactive, profiles.statuses["u-2"])
	require.Len(t, aud.inputs, 1)
	assert.Equal(t, audit.ActionUserDeactivate, aud.inputs[0].Action)

	err := uc.Deactivate(context.Background(), admin, "u-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no puede desactivarse a sí mismo")

	err = uc.Deactivate(context.Background(), admin, "u-9")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserList_FiltraPorRol(t *testing.T) {
	profiles := newProfiles(
		&entity.UserProfile{ID: "u-1", Role: entity.RoleAdmin},
		&entity.UserProfile{ID: "u-2", Role: entity.RoleSalesperson},
	)
	uc := usecase.NewUserUseCase(profiles, &memPerms{byUser: map[string][]string{}}, &spyAuditor{})
	admin := session("u-1", "管理员", entity.RoleAdmin, permission.SystemUserManage)

	out, err := uc.List(context.Background(), admin, dto.UserListQuery{Role: entity.RoleSalesperson})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "u-2", out.Items[0].ID)
	assert.Equal(t, 20, out.Page.Limit)

	_, err = uc.List(context.Background(), session("u-2", "x", entity.RoleSalesperson), dto.UserListQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserGetByID_PropioPerfilSinCapacidad(t *testing.T) {
	profiles := newProfiles(&entity.UserProfile{ID: "u-2", Name: "李四"})
	perms := &memPerms{byUser: map[string][]string{"u-2": {"training_view", "customer_view"}}}
	uc := usecase.NewUserUseCase(profiles, perms, &spyAuditor{})

	out, err := uc.GetByID(context.Background(), session("u-2", "李四", entity.RoleSalesperson), "u-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer_view", "training_view"}, out.Permissions)

	_, err = uc.GetByID(context.Background(), session("u-2", "李四", entity.RoleSalesperson), "u-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clientes
// ──────────────────────────────────────────────────────────────────────────────

func TestCustomerList_VendedorSoloVeLosSuyos(t *testing.T) {
	repo := &memCustomers{items: []*entity.Customer{
		{ID: "c-1", Name: "王五", SalespersonName: "张三"},
		{ID: "c-2", Name: "赵六", SalespersonName: "李四"},
	}}
	uc := usecase.NewCustomerUseCase(repo)

	out, err := uc.List(context.Background(), session("u-1", "张三", entity.RoleSalesperson, permission.CustomerView), dto.CustomerListQuery{})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "c-1", out.Items[0].ID)
	require.NotNil(t, out.Page.Total)
	assert.Equal(t, 1, *out.Page.Total)

	out, err = uc.List(context.Background(), session("u-9", "管理员", entity.RoleAdmin, permission.CustomerView), dto.CustomerListQuery{Search: "王"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "王", repo.lastFilt.Search)
	assert.Empty(t, repo.lastFilt.SalespersonName)
}

func TestCustomerList_SinPermiso(t *testing.T) {
	uc := usecase.NewCustomerUseCase(&memCustomers{})
	_, err := uc.List(context.Background(), session("u-1", "张三", entity.RoleSalesperson), dto.CustomerListQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Participantes
// ──────────────────────────────────────────────────────────────────────────────

func newTrainings() *memTrainings {
	return &memTrainings{
		sessions: map[string]*entity.TrainingSession{"t-1": {ID: "t-1", Name: "新能源培训"}},
		parts: map[string]*entity.Participant{
			"p-1": {ID: "p-1", TrainingID: "t-1", Name: "王五", Amount: decimal.NewFromInt(1200)},
		},
	}
}

func TestUpdateParticipant_CambiosAuditados(t *testing.T) {
	repo := newTrainings()
	aud := &spyAuditor{}
	uc := usecase.NewTrainingUseCase(repo, aud)
	sess := session("u-1", "张三", entity.RoleSalesperson, permission.TrainingParticipantManage)

	paid := true
	amount := decimal.RequireFromString("1500.00")
	out, err := uc.UpdateParticipant(context.Background(), sess, "p-1", dto.UpdateParticipantRequest{Paid: &paid, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, []string{"amount", "paid"}, out.ChangedFields)
	assert.True(t, out.Participant.Paid)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, []string{"p-1"}, aud.participants)
}

func TestUpdateParticipant_SinCambiosNoEscribe(t *testing.T) {
	repo := newTrainings()
	aud := &spyAuditor{}
	uc := usecase.NewTrainingUseCase(repo, aud)
	sess := session("u-1", "张三", entity.RoleSalesperson, permission.TrainingParticipantManage)

	name := "王五"
	out, err := uc.UpdateParticipant(context.Background(), sess, "p-1", dto.UpdateParticipantRequest{Name: &name})
	require.NoError(t, err)
	assert.Empty(t, out.ChangedFields)
	assert.Zero(t, repo.updates)
	assert.Empty(t, aud.participants)
}

func TestUpdateParticipant_Errores(t *testing.T) {
	uc := usecase.NewTrainingUseCase(newTrainings(), &spyAuditor{})

	_, err := uc.UpdateParticipant(context.Background(), session("u-1", "x", entity.RoleExpert), "p-1", dto.UpdateParticipantRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	sess := session("u-1", "x", entity.RoleAdmin, permission.TrainingParticipantManage)
	_, err = uc.UpdateParticipant(context.Background(), sess, "p-404", dto.UpdateParticipantRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListParticipants(t *testing.T) {
	uc := usecase.NewTrainingUseCase(newTrainings(), &spyAuditor{})
	sess := session("u-1", "x", entity.RoleExpert, permission.TrainingView)

	out, err := uc.ListParticipants(context.Background(), sess, "t-1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1200", out[0].Amount.String())

	_, err = uc.ListParticipants(context.Background(), sess, "t-9")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
