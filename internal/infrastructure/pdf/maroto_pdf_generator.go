// Package pdf genera la versión imprimible de la hoja de firmas de un curso.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  TÍTULO: <curso> 签到表                                       │
//	│  RESUMEN: 课程 / 日期 / 人数                                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: 参训人 | 单位/公司 | 负责业务员 | 签名                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"math"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"

	"github.com/jhoicas/training-crm-api/internal/application/export"
)

var _ export.PDFRenderer = (*MarotoPDFGenerator)(nil)

const (
	gridColumns = 12
	cjkFamily   = "cjk"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorHeader  = &props.Color{Red: 217, Green: 225, Blue: 242}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa export.PDFRenderer usando Maroto v2.
// Las fuentes estándar de PDF no traen glifos chinos: con fontPath se embebe una fuente TTF.
type MarotoPDFGenerator struct {
	fontPath string
}

// NewMarotoPDFGenerator construye el generador. fontPath puede ser vacío.
func NewMarotoPDFGenerator(fontPath string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{fontPath: fontPath}
}

// RenderPDF genera el PDF de la hoja y devuelve sus bytes.
func (g *MarotoPDFGenerator) RenderPDF(sheet export.Sheet) ([]byte, error) {
	builder := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithTitle(sheet.Title, true)

	family := "helvetica"
	if g.fontPath != "" {
		fonts, err := repository.New().
			AddUTF8Font(cjkFamily, fontstyle.Normal, g.fontPath).
			AddUTF8Font(cjkFamily, fontstyle.Bold, g.fontPath).
			Load()
		if err != nil {
			return nil, fmt.Errorf("pdf: cargar fuente %s: %w", g.fontPath, err)
		}
		builder = builder.WithCustomFonts(fonts)
		family = cjkFamily
	}
	builder = builder.WithDefaultFont(&props.Font{Family: family, Size: 10})

	m := maroto.New(builder.Build())

	m.AddRows(titleRow(sheet.Title))
	if sheet.Summary != "" {
		m.AddRows(summaryRow(sheet.Summary))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(row.New(3))

	sizes := gridSizes(sheet.Widths, len(sheet.Headers))
	m.AddRows(tableHeaderRow(sheet.Headers, sizes))
	m.AddRows(tableRows(sheet.Rows, sizes)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func titleRow(title string) core.Row {
	return row.New(14).Add(
		col.New(gridColumns).Add(text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 16, Align: align.Center, Color: colorPrimary, Top: 3,
		})),
	)
}

func summaryRow(summary string) core.Row {
	return row.New(8).Add(
		col.New(gridColumns).Add(text.New(summary, props.Text{
			Size: 9, Color: colorGray, Top: 2,
		})),
	)
}

func tableHeaderRow(headers []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(headers))
	for i, h := range headers {
		cols = append(cols, col.New(sizes[i]).
			Add(text.New(h, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center, Top: 2})).
			WithStyle(&props.Cell{BackgroundColor: colorHeader, BorderType: border.Full, BorderThickness: 0.2}))
	}
	return row.New(9).Add(cols...)
}

// tableRows: filas altas con bordes para dejar espacio a la firma manuscrita.
func tableRows(rows [][]string, sizes []int) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		cols := make([]core.Col, 0, len(sizes))
		for i, size := range sizes {
			var v string
			if i < len(r) {
				v = r[i]
			}
			cols = append(cols, col.New(size).
				Add(text.New(v, props.Text{Size: 10, Align: align.Center, Top: 3})).
				WithStyle(&props.Cell{BorderType: border.Full, BorderThickness: 0.2}))
		}
		out = append(out, row.New(11).Add(cols...))
	}
	return out
}

// ── helpers ───────────────────────────────────────────────────────────────────

// gridSizes reparte las 12 columnas de la grilla proporcionalmente a widths.
// Cada columna recibe al menos 1; la suma nunca supera 12.
func gridSizes(widths []float64, n int) []int {
	if n <= 0 {
		return nil
	}
	if n > gridColumns {
		n = gridColumns
	}
	var total float64
	for i := 0; i < n; i++ {
		total += widthAt(widths, i)
	}
	sizes := make([]int, n)
	used := 0
	for i := 0; i < n; i++ {
		sizes[i] = max(1, int(math.Floor(widthAt(widths, i)/total*gridColumns)))
		used += sizes[i]
	}
	// El sobrante va a la columna más ancha; el exceso se descuenta de la más ancha posible.
	for used < gridColumns {
		sizes[widest(sizes)]++
		used++
	}
	for used > gridColumns {
		w := widest(sizes)
		if sizes[w] == 1 {
			break
		}
		sizes[w]--
		used--
	}
	return sizes
}

func widthAt(widths []float64, i int) float64 {
	if i < len(widths) && widths[i] > 0 {
		return widths[i]
	}
	return 1
}

func widest(sizes []int) int {
	best := 0
	for i, s := range sizes {
		if s > sizes[best] {
			best = i
		}
	}
	return best
}
