package permission_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

// ──────────────────────────────────────────────────────────────────────────────
// Evaluador
// ──────────────────────────────────────────────────────────────────────────────

func sessionWith(caps ...permission.Capability) permission.Session {
	return permission.NewSession(permission.Principal{UserID: "u-1", Role: "salesperson"}, caps)
}

func TestHasPermission_CoincidenciaExacta(t *testing.T) {
	s := sessionWith(permission.CustomerAdd, permission.DataImport)

	assert.True(t, s.HasPermission(permission.CustomerAdd))
	assert.True(t, s.HasPermission(permission.DataImport))
	assert.False(t, s.HasPermission(permission.CustomerDelete), "no concedida")
	assert.False(t, s.HasPermission("CUSTOMER_ADD"), "sin case folding")
	assert.False(t, s.HasPermission("customer"), "sin coincidencia por prefijo")
	assert.False(t, s.HasPermission("customer_ad"), "sin coincidencia parcial")
}

func TestHasAnyPermission(t *testing.T) {
	s := sessionWith(permission.TrainingView)

	assert.True(t, s.HasAnyPermission(permission.TrainingView, permission.TrainingEdit))
	assert.True(t, s.HasAnyPermission(permission.TrainingEdit, permission.TrainingView))
	assert.False(t, s.HasAnyPermission(permission.TrainingEdit, permission.TrainingDelete))
	assert.False(t, s.HasAnyPermission(), "lista vacía debe ser false")
}

func TestHasAllPermissions(t *testing.T) {
	s := sessionWith(permission.ExpertView, permission.ExpertEdit)

	assert.True(t, s.HasAllPermissions(permission.ExpertView, permission.ExpertEdit))
	assert.False(t, s.HasAllPermissions(permission.ExpertView, permission.ExpertDelete))
	assert.True(t, s.HasAllPermissions(), "lista vacía debe ser true")
}

func TestEvaluador_RolAdminSinCasoEspecial(t *testing.T) {
	s := permission.NewSession(permission.Principal{UserID: "a", Role: "admin"}, nil)
	assert.False(t, s.HasPermission(permission.SystemAuditView),
		"el rol no concede capacidades por sí mismo")
}

func TestEvaluador_SesionAnonima(t *testing.T) {
	s := permission.Anonymous()
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.HasPermission(permission.CustomerView))
	assert.True(t, s.HasAllPermissions())
	assert.Empty(t, s.Capabilities())
}

func TestMissing(t *testing.T) {
	s := sessionWith(permission.DataExport)
	assert.Equal(t,
		[]permission.Capability{permission.DataImport, permission.SystemUserManage},
		s.Missing(permission.DataImport, permission.DataExport, permission.SystemUserManage))
}

func TestSession_CapacidadesOrdenadasSinDuplicados(t *testing.T) {
	s := sessionWith(permission.PosterView, permission.CustomerAdd, permission.PosterView)
	assert.Equal(t, []permission.Capability{permission.CustomerAdd, permission.PosterView}, s.Capabilities())
}

func TestSession_DisplayName(t *testing.T) {
	assert.Equal(t, "张三", permission.NewSession(permission.Principal{UserID: "1", Email: "a@b.cn", Name: "张三"}, nil).DisplayName())
	assert.Equal(t, "a@b.cn", permission.NewSession(permission.Principal{UserID: "1", Email: "a@b.cn"}, nil).DisplayName())
	assert.Equal(t, "1", permission.NewSession(permission.Principal{UserID: "1"}, nil).DisplayName())
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalog_AgrupadoPorPrefijo(t *testing.T) {
	assert.Equal(t,
		[]string{"customer", "training", "expert", "salesperson", "prospectus", "poster", "data", "system"},
		permission.Groups())

	for group, defs := range permission.Grouped() {
		for _, d := range defs {
			assert.Contains(t, string(d.Capability), group+"_", "la capacidad debe llevar el prefijo de su grupo")
			assert.NotEmpty(t, d.Label)
		}
	}
}

func TestCatalog_SinDuplicados(t *testing.T) {
	seen := map[permission.Capability]bool{}
	for _, c := range permission.All() {
		assert.False(t, seen[c], "capacidad duplicada: %s", c)
		seen[c] = true
		assert.True(t, permission.IsKnown(c))
	}
	assert.Len(t, permission.Catalog(), len(seen))
}

func TestParse_RechazaDesconocidas(t *testing.T) {
	caps, err := permission.Parse([]string{"customer_view", "data_import", "customer_view"})
	require.NoError(t, err)
	assert.Equal(t, []permission.Capability{permission.CustomerView, permission.DataImport}, caps)

	_, err = permission.Parse([]string{"customer_view", "root_everything"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownCapability))
	assert.Contains(t, err.Error(), "root_everything")
}

func TestDefaultsForRole_SoloDelCatalogo(t *testing.T) {
	for _, role := range []string{"admin", "salesperson", "expert"} {
		for _, c := range permission.DefaultsForRole(role) {
			assert.True(t, permission.IsKnown(c), "%s: %s fuera del catálogo", role, c)
		}
	}
	assert.Len(t, permission.DefaultsForRole("admin"), len(permission.All()))
	assert.Nil(t, permission.DefaultsForRole("guest"))
}
