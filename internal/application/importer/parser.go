package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jhoicas/training-crm-api/internal/domain"
)

// MaxUploadSize tamaño máximo aceptado para un archivo de importación.
const MaxUploadSize = 10 << 20

// Extensiones soportadas.
const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
	ExtCSV  = ".csv"
)

// Record fila importada: clave interna -> valor. nil marca explícitamente un valor ausente.
// Los valores posibles son string, float64, bool y []string.
type Record map[string]any

// String devuelve el valor como texto recortado ("" si está ausente o no es string).
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return strings.TrimSpace(s)
}

// Present indica si key tiene un valor no nulo.
func (r Record) Present(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Row registro junto con su número de línea en el archivo (la cabecera es la línea 1).
type Row struct {
	Line   int
	Record Record
}

// Upload archivo recibido. Reader se consume una sola vez.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// RowReader lee la primera hoja de un archivo tabular como filas de texto.
type RowReader interface {
	ReadXLSX(r io.Reader) ([][]string, error)
	ReadXLS(r io.ReadSeeker) ([][]string, error)
	ReadCSV(r io.Reader) ([][]string, error)
}

// Parser convierte un archivo subido en registros tipados. No valida reglas de negocio.
type Parser struct {
	reader RowReader
}

// NewParser construye el parser con el lector de hojas de cálculo.
func NewParser(reader RowReader) *Parser {
	return &Parser{reader: reader}
}

// ValidateUpload rechaza archivos demasiado grandes o con extensión no soportada.
func ValidateUpload(name string, size int64) error {
	if size > MaxUploadSize {
		return &domain.FileFormatError{Message: "文件大小不能超过10MB"}
	}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ExtXLSX, ExtXLS, ExtCSV:
		return nil
	default:
		return &domain.FileFormatError{Message: fmt.Sprintf("不支持的文件格式: %s", ext)}
	}
}

// Parse devuelve los registros del archivo en orden, omitiendo filas en blanco.
func (p *Parser) Parse(ctx context.Context, file Upload, dt DataType) ([]Record, error) {
	rows, err := p.ParseRows(ctx, file, dt)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record
	}
	return out, nil
}

// ParseRows igual que Parse pero conservando el número de línea de cada registro.
func (p *Parser) ParseRows(ctx context.Context, file Upload, dt DataType) ([]Row, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: tipo de datos %q", domain.ErrInvalidInput, dt)
	}
	raw, err := p.readRaw(ctx, file)
	if err != nil {
		return nil, err
	}
	return mapRows(raw, dt)
}

func (p *Parser) readRaw(ctx context.Context, file Upload) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		raw [][]string
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(file.Name)); ext {
	case ExtXLSX:
		raw, err = p.reader.ReadXLSX(file.Reader)
	case ExtXLS:
		// El formato BIFF necesita acceso aleatorio.
		rs, ok := file.Reader.(io.ReadSeeker)
		if !ok {
			data, rerr := io.ReadAll(io.LimitReader(file.Reader, MaxUploadSize+1))
			if rerr != nil {
				return nil, &domain.FileFormatError{Message: "读取文件失败", Err: rerr}
			}
			rs = bytes.NewReader(data)
		}
		raw, err = p.reader.ReadXLS(rs)
	case ExtCSV:
		raw, err = p.reader.ReadCSV(file.Reader)
	default:
		return nil, &domain.FileFormatError{Message: fmt.Sprintf("不支持的文件格式: %s", ext)}
	}
	if err != nil {
		return nil, &domain.FileFormatError{Message: "文件解析失败", Err: err}
	}
	return raw, nil
}

// mapRows aplica la tabla de campos a las filas crudas.
func mapRows(raw [][]string, dt DataType) ([]Row, error) {
	headerIdx := -1
	for i, r := range raw {
		if !blank(r) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &domain.FileFormatError{Message: "文件缺少表头"}
	}

	type column struct {
		key   string
		ftype FieldType
	}
	header := raw[headerIdx]
	cols := make([]*column, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if f, ok := dt.FieldByHeader(h); ok {
			cols[i] = &column{key: f.Key, ftype: f.Type}
		} else {
			cols[i] = &column{key: h, ftype: FieldString}
		}
	}

	var out []Row
	for i := headerIdx + 1; i < len(raw); i++ {
		cells := raw[i]
		if blank(cells) {
			continue
		}
		rec := make(Record, len(cols))
		for j, col := range cols {
			if col == nil {
				continue
			}
			var cell string
			if j < len(cells) {
				cell = cells[j]
			}
			v := Coerce(col.ftype, cell)
			// Con cabeceras repetidas gana el primer valor no vacío.
			if prev, seen := rec[col.key]; seen && prev != nil {
				continue
			}
			rec[col.key] = v
		}
		out = append(out, Row{Line: i + 1, Record: rec})
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
