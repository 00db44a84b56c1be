package export

import (
	"context"

	"github.com/jhoicas/training-crm-api/internal/application/importer"
)

// Tipos de contenido de los archivos generados.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// File archivo listo para descargar.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sheet hoja a renderizar. Con Title vacío la cabecera va en la fila 1;
// con Title, las filas 1-3 son título (combinado), resumen y separador, y la cabecera va en la fila 4.
type Sheet struct {
	Name    string
	Title   string
	Summary string
	Headers []string
	Rows    [][]string
	Widths  []float64
}

// Workbook libro con una o más hojas, en orden.
type Workbook struct {
	Sheets []Sheet
}

// WorkbookRenderer genera el binario .xlsx.
type WorkbookRenderer interface {
	RenderXLSX(wb Workbook) ([]byte, error)
}

// PDFRenderer genera una hoja de firmas imprimible.
type PDFRenderer interface {
	RenderPDF(sheet Sheet) ([]byte, error)
}

// RecordSource lee las filas de un tipo de datos para exportarlas.
type RecordSource interface {
	ListRecords(ctx context.Context, dt importer.DataType, limit int) ([]importer.Record, error)
}

// Participant fila de la hoja de firmas.
type Participant struct {
	Name            string `json:"name"`
	SalespersonName string `json:"salesperson_name"`
	Company         string `json:"company"`
	Signature       string `json:"signature,omitempty"` // se ignora: la hoja sale sin firmas
}

// AttendanceConfig datos de la hoja de firmas de un curso.
type AttendanceConfig struct {
	CourseName   string        `json:"course_name"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date,omitempty"`
	TotalCount   int           `json:"total_count"`
	Participants []Participant `json:"participants"`
}
