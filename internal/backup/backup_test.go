package backup_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/backup"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var cfg = backup.Config{TemplatePath: "supabase/schema.sql", HistoryDir: "supabase/history"}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// ──────────────────────────────────────────────────────────────────────────────
// Copia
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_CopiaPlantilla(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfg.TemplatePath, []byte("create table customers();"), 0o644))
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	res, err := backup.NewRunner(fs, cfg).WithClock(fixedClock(now)).Run()
	require.NoError(t, err)

	assert.Equal(t, "supabase/history/schema_2024-03-05T14-07-09.sql", res.Created)
	data, err := afero.ReadFile(fs, res.Created)
	require.NoError(t, err)
	assert.Equal(t, "create table customers();", string(data), "copia idéntica a la plantilla")
	assert.Empty(t, res.Pruned)
}

func TestRun_SinPlantilla(t *testing.T) {
	_, err := backup.NewRunner(afero.NewMemMapFs(), cfg).Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, backup.ErrTemplateMissing)
}

func TestRun_ErrorDeEscritura(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, cfg.TemplatePath, []byte("x"), 0o644))
	_, err := backup.NewRunner(afero.NewReadOnlyFs(base), cfg).Run()
	require.Error(t, err)
	assert.NotErrorIs(t, err, backup.ErrTemplateMissing)
}

// ──────────────────────────────────────────────────────────────────────────────
// Poda
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_ConservaLasDiezMasRecientes(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfg.TemplatePath, []byte("x"), 0o644))
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("supabase/history/schema_2024-01-%02dT00-00-00.sql", i)
		require.NoError(t, afero.WriteFile(fs, name, []byte("old"), 0o644))
	}
	require.NoError(t, afero.WriteFile(fs, "supabase/history/README.md", []byte("notas"), 0o644))

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	res, err := backup.NewRunner(fs, cfg).WithClock(fixedClock(now)).Run()
	require.NoError(t, err)

	assert.Len(t, res.Pruned, 3, "13 copias, se conservan 10")
	for i := 1; i <= 3; i++ {
		ok, _ := afero.Exists(fs, fmt.Sprintf("supabase/history/schema_2024-01-%02dT00-00-00.sql", i))
		assert.False(t, ok, "la copia %d debía eliminarse", i)
	}
	ok, _ := afero.Exists(fs, res.Created)
	assert.True(t, ok, "la copia nueva se conserva")
	ok, _ = afero.Exists(fs, "supabase/history/README.md")
	assert.True(t, ok, "otros archivos no se tocan")
}

func TestRun_KeepConfigurable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfg.TemplatePath, []byte("x"), 0o644))
	c := cfg
	c.Keep = 2
	r := backup.NewRunner(fs, c)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := r.WithClock(fixedClock(base.Add(time.Duration(i) * time.Hour))).Run()
		require.NoError(t, err)
	}
	entries, err := afero.ReadDir(fs, c.HistoryDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
