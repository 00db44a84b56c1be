// Package backup copia la plantilla del esquema a un histórico con marca de tiempo
// y conserva sólo las copias más recientes.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	filePrefix = "schema_"
	fileSuffix = ".sql"
	// stampLayout ordena lexicográficamente igual que cronológicamente.
	stampLayout = "2006-01-02T15-04-05"
	// DefaultKeep copias conservadas si no se indica otra cantidad.
	DefaultKeep = 10
)

// ErrTemplateMissing la plantilla del esquema no existe.
var ErrTemplateMissing = errors.New("backup: plantilla de esquema no encontrada")

// Config rutas y retención.
type Config struct {
	TemplatePath string
	HistoryDir   string
	Keep         int
}

// Result copia creada y copias eliminadas.
type Result struct {
	Created string
	Pruned  []string
}

// Runner ejecuta respaldos sobre un sistema de archivos.
type Runner struct {
	fs  afero.Fs
	cfg Config
	now func() time.Time
}

// NewRunner construye el runner. fs nil usa el sistema de archivos del SO.
func NewRunner(fs afero.Fs, cfg Config) *Runner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	return &Runner{fs: fs, cfg: cfg, now: time.Now}
}

// WithClock fija el reloj (tests).
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run copia la plantilla y poda el histórico.
func (r *Runner) Run() (*Result, error) {
	data, err := afero.ReadFile(r.fs, r.cfg.TemplatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, r.cfg.TemplatePath)
		}
		return nil, fmt.Errorf("backup: leer plantilla: %w", err)
	}
	if err := r.fs.MkdirAll(r.cfg.HistoryDir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: crear directorio de histórico: %w", err)
	}

	name := filePrefix + r.now().Format(stampLayout) + fileSuffix
	target := path.Join(r.cfg.HistoryDir, name)
	if err := afero.WriteFile(r.fs, target, data, 0o644); err != nil {
		return nil, fmt.Errorf("backup: escribir %s: %w", target, err)
	}

	pruned, err := r.prune()
	if err != nil {
		return nil, err
	}
	return &Result{Created: target, Pruned: pruned}, nil
}

// prune borra las copias más antiguas por encima de Keep.
func (r *Runner) prune() ([]string, error) {
	entries, err := afero.ReadDir(r.fs, r.cfg.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("backup: listar histórico: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) <= r.cfg.Keep {
		return nil, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var pruned []string
	for _, n := range names[r.cfg.Keep:] {
		p := path.Join(r.cfg.HistoryDir, n)
		if err := r.fs.Remove(p); err != nil {
			return pruned, fmt.Errorf("backup: eliminar %s: %w", p, err)
		}
		pruned = append(pruned, p)
	}
	return pruned, nil
}
