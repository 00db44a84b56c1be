package export_test

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/training-crm-api/internal/application/export"
	"github.com/jhoicas/training-crm-api/internal/infrastructure/spreadsheet"
)

func newService() *export.Service {
	return export.NewService(spreadsheet.NewWriter(), nil, nil, nil, nil)
}

func openXLSX(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func sampleConfig() export.AttendanceConfig {
	return export.AttendanceConfig{
		CourseName: "Go 高并发实战",
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-02",
		Participants: []export.Participant{
			{Name: "张三", Company: "甲公司", SalespersonName: "王销售"},
			{Name: "李四", Company: "乙公司", SalespersonName: ""},
			{Name: "赵六", Company: "丙公司", SalespersonName: "王销售"},
			{Name: "钱七", Company: "丁公司", SalespersonName: "陈销售"},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ExportAll
// ──────────────────────────────────────────────────────────────────────────────

func TestExportAll_UnaHojaConTituloYCabecera(t *testing.T) {
	file, err := newService().ExportAll(sampleConfig())
	require.NoError(t, err)
	assert.Equal(t, "Go 高并发实战_签到表_2026-03-01.xlsx", file.Name)
	assert.Equal(t, export.ContentTypeXLSX, file.ContentType)

	f := openXLSX(t, file.Data)
	require.Equal(t, []string{"签到表"}, f.GetSheetList())

	assert.Equal(t, "Go 高并发实战 签到表", cell(t, f, "签到表", "A1"))
	assert.Equal(t, "课程：Go 高并发实战　日期：2026-03-01 至 2026-03-02　人数：4", cell(t, f, "签到表", "A2"))

	merged, err := f.GetMergeCells("签到表")
	require.NoError(t, err)
	var refs []string
	for _, m := range merged {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, refs, "A1:D1", "el título abarca todas las columnas")

	assert.Equal(t, "参训人", cell(t, f, "签到表", "A4"))
	assert.Equal(t, "签名", cell(t, f, "签到表", "D4"))
	assert.Equal(t, "张三", cell(t, f, "签到表", "A5"))
	assert.Equal(t, "甲公司", cell(t, f, "签到表", "B5"))
	assert.Equal(t, "钱七", cell(t, f, "签到表", "A8"))
	assert.Empty(t, cell(t, f, "签到表", "D5"), "la columna de firma queda en blanco")
}

func TestExportAll_TotalExplicito(t *testing.T) {
	cfg := sampleConfig()
	cfg.EndDate = ""
	cfg.TotalCount = 30
	file, err := newService().ExportAll(cfg)
	require.NoError(t, err)
	f := openXLSX(t, file.Data)
	assert.Equal(t, "课程：Go 高并发实战　日期：2026-03-01　人数：30", cell(t, f, "签到表", "A2"))
}

// ──────────────────────────────────────────────────────────────────────────────
// ExportBySalesperson
// ──────────────────────────────────────────────────────────────────────────────

func TestExportBySalesperson_HojaPorVendedorEnOrdenDeAparicion(t *testing.T) {
	file, err := newService().ExportBySalesperson(sampleConfig())
	require.NoError(t, err)

	f := openXLSX(t, file.Data)
	require.Equal(t, []string{"王销售", export.UnassignedGroup, "陈销售"}, f.GetSheetList())

	assert.Equal(t, "Go 高并发实战 签到表（王销售）", cell(t, f, "王销售", "A1"))
	assert.Contains(t, cell(t, f, "王销售", "A2"), "人数：2")
	assert.Equal(t, "张三", cell(t, f, "王销售", "A5"))
	assert.Equal(t, "赵六", cell(t, f, "王销售", "A6"))
	assert.Equal(t, "李四", cell(t, f, export.UnassignedGroup, "A5"))
}

func TestExport_FirmaSiempreEnBlanco(t *testing.T) {
	cfg := sampleConfig()
	for i := range cfg.Participants {
		cfg.Participants[i].Signature = cfg.Participants[i].Name + "(已签)"
	}

	all, err := newService().ExportAll(cfg)
	require.NoError(t, err)
	f := openXLSX(t, all.Data)
	for _, ref := range []string{"D5", "D6", "D7", "D8"} {
		assert.Empty(t, cell(t, f, "签到表", ref), "firma %s en blanco", ref)
	}

	bySales, err := newService().ExportBySalesperson(cfg)
	require.NoError(t, err)
	f = openXLSX(t, bySales.Data)
	assert.Empty(t, cell(t, f, "王销售", "D5"))
	assert.Empty(t, cell(t, f, "王销售", "D6"))
	assert.Empty(t, cell(t, f, export.UnassignedGroup, "D5"))
}

func TestExportBySalesperson_SinParticipantes(t *testing.T) {
	cfg := sampleConfig()
	cfg.Participants = nil
	file, err := newService().ExportBySalesperson(cfg)
	require.NoError(t, err)
	f := openXLSX(t, file.Data)
	assert.Equal(t, []string{"签到表"}, f.GetSheetList())
}

func TestExportBySalesperson_NombresDeHojaSaneados(t *testing.T) {
	long := strings.Repeat("长", 40)
	cfg := export.AttendanceConfig{
		CourseName: "课程",
		StartDate:  "2026-03-01",
		Participants: []export.Participant{
			{Name: "a", SalespersonName: "王/销售?"},
			{Name: "b", SalespersonName: long},
			{Name: "c", SalespersonName: long + "x"},
		},
	}
	file, err := newService().ExportBySalesperson(cfg)
	require.NoError(t, err)
	sheets := openXLSX(t, file.Data).GetSheetList()
	require.Len(t, sheets, 3)
	assert.Equal(t, "王销售", sheets[0])
	assert.Equal(t, strings.Repeat("长", 31), sheets[1])
	assert.Equal(t, strings.Repeat("长", 28)+"(2)", sheets[2], "nombres truncados que colisionan reciben sufijo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func TestGroupBySalesperson(t *testing.T) {
	groups := export.GroupBySalesperson(sampleConfig().Participants)
	require.Len(t, groups, 3)
	assert.Equal(t, "王销售", groups[0].Salesperson)
	assert.Len(t, groups[0].Participants, 2)
	assert.Equal(t, export.UnassignedGroup, groups[1].Salesperson)
	assert.Equal(t, "陈销售", groups[2].Salesperson)
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "ab", export.SanitizeSheetName("a[b]"))
	assert.Equal(t, "Sheet", export.SanitizeSheetName("///"))
	assert.Equal(t, 31, utf8.RuneCountInString(export.SanitizeSheetName(strings.Repeat("x", 50))))
}

func TestAttendanceFileName(t *testing.T) {
	cfg := export.AttendanceConfig{CourseName: "A/B 课程", StartDate: "2026-05-20"}
	assert.Equal(t, "A_B 课程_签到表_2026-05-20.pdf", export.AttendanceFileName(cfg, ".pdf"))
}

func TestExportAllPDF_SinGeneradorConfigurado(t *testing.T) {
	_, err := newService().ExportAllPDF(sampleConfig())
	assert.Error(t, err)
}
