// Package spreadsheet lee y escribe hojas de cálculo: .xlsx con excelize, .xls (BIFF) con extrame/xls
// y .csv con encoding/csv (UTF-8 o GB18030).
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/jhoicas/training-crm-api/internal/application/importer"
)

var _ importer.RowReader = (*Reader)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader implementa importer.RowReader. Sólo se lee la primera hoja.
type Reader struct{}

// NewReader construye el lector.
func NewReader() *Reader { return &Reader{} }

// ReadXLSX devuelve las filas de la primera hoja con los valores crudos de celda
// (las fechas llegan como serial y las horas como fracción de día).
func (r *Reader) ReadXLSX(in io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("xlsx: abrir: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx: el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: leer filas: %w", err)
	}
	return rows, nil
}

// ReadXLS lee la primera hoja de un libro Excel 97-2003.
func (r *Reader) ReadXLS(in io.ReadSeeker) (rows [][]string, err error) {
	// La librería entra en pánico con archivos corruptos.
	defer func() {
		if rec := recover(); rec != nil {
			rows, err = nil, fmt.Errorf("xls: archivo corrupto: %v", rec)
		}
	}()

	wb, err := xls.OpenReader(in, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("xls: abrir: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls: el libro no tiene hojas")
	}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol()+1)
		for j := row.FirstCol(); j <= row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, trimTrailing(cells))
	}
	return rows, nil
}

// ReadCSV lee un CSV con cabecera. Elimina el BOM y decodifica GB18030 si el contenido no es UTF-8.
func (r *Reader) ReadCSV(in io.Reader) ([][]string, error) {
	data, err := io.ReadAll(io.LimitReader(in, importer.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("csv: leer: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, derr := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
		if derr != nil {
			return nil, fmt.Errorf("csv: codificación no soportada: %w", derr)
		}
		data = decoded
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return rows, nil
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}
