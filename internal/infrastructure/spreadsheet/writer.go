package spreadsheet

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/training-crm-api/internal/application/export"
)

var _ export.WorkbookRenderer = (*Writer)(nil)

// Filas del bloque de título.
const (
	titleRow      = 1
	summaryRow    = 2
	titleHeaderAt = 4
)

// Writer implementa export.WorkbookRenderer con excelize.
type Writer struct{}

// NewWriter construye el generador de libros.
func NewWriter() *Writer { return &Writer{} }

type styles struct {
	title, summary, header, cell int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.summary, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11, Color: "595959"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	}); err != nil {
		return s, err
	}
	s.cell, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
		Border:    border(),
	})
	return s, err
}

// RenderXLSX genera el libro completo y devuelve sus bytes.
func (w *Writer) RenderXLSX(wb export.Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("xlsx: libro sin hojas")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilos: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, sh := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				return nil, fmt.Errorf("xlsx: renombrar hoja %q: %w", sh.Name, err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, fmt.Errorf("xlsx: crear hoja %q: %w", sh.Name, err)
		}
		if err := writeSheet(f, sh, st); err != nil {
			return nil, fmt.Errorf("xlsx: hoja %q: %w", sh.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: serializar: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sh export.Sheet, st styles) error {
	cols := len(sh.Headers)
	if cols == 0 {
		cols = 1
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	headerRow := 1
	if sh.Title != "" {
		headerRow = titleHeaderAt
		if err := mergedLine(f, sh.Name, titleRow, lastCol, sh.Title, st.title); err != nil {
			return err
		}
		if err := f.SetRowHeight(sh.Name, titleRow, 32); err != nil {
			return err
		}
		if err := mergedLine(f, sh.Name, summaryRow, lastCol, sh.Summary, st.summary); err != nil {
			return err
		}
	}

	for j, h := range sh.Headers {
		cell, err := excelize.CoordinatesToCellName(j+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sh.Name, cell, h); err != nil {
			return err
		}
	}
	if len(sh.Headers) > 0 {
		if err := f.SetCellStyle(sh.Name, "A"+strconv.Itoa(headerRow), lastCol+strconv.Itoa(headerRow), st.header); err != nil {
			return err
		}
	}

	for i, row := range sh.Rows {
		r := headerRow + 1 + i
		for j := 0; j < len(sh.Headers) && j < len(row); j++ {
			cell, err := excelize.CoordinatesToCellName(j+1, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sh.Name, cell, row[j]); err != nil {
				return err
			}
		}
		if sh.Title != "" {
			// La hoja de firmas necesita filas altas y bordes aunque la celda esté vacía.
			if err := f.SetRowHeight(sh.Name, r, 24); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sh.Name, "A"+strconv.Itoa(r), lastCol+strconv.Itoa(r), st.cell); err != nil {
			return err
		}
	}

	for j := range sh.Headers {
		width := 18.0
		if j < len(sh.Widths) && sh.Widths[j] > 0 {
			width = sh.Widths[j]
		}
		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sh.Name, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func mergedLine(f *excelize.File, sheet string, row int, lastCol, value string, style int) error {
	start, end := "A"+strconv.Itoa(row), lastCol+strconv.Itoa(row)
	if err := f.MergeCell(sheet, start, end); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, start, value); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}
