package importer

import (
	"fmt"
	"strings"

	"github.com/jhoicas/training-crm-api/internal/domain"
)

// DataType tipo de datos importable/exportable. Variante cerrada.
type DataType string

const (
	Customers    DataType = "customers"
	Experts      DataType = "experts"
	Salespersons DataType = "salespersons"
	Trainings    DataType = "trainings"
)

// FieldType determina la coerción aplicada a la celda.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldBool
	FieldList
	FieldDate
	FieldTime
)

// Field columna conocida de un tipo de datos: clave interna, etiqueta en la plantilla y alias aceptados.
type Field struct {
	Key      string
	Label    string
	Aliases  []string
	Type     FieldType
	Required bool
}

type schema struct {
	label    string
	table    string
	role     string // rol de la cuenta a crear; vacío = sin cuentas
	fields   []Field
	byHeader map[string]Field
	byKey    map[string]Field
}

var schemas = map[DataType]*schema{
	Customers: newSchema("客户", "customers", "", []Field{
		{Key: "name", Label: "姓名", Aliases: []string{"参训人", "客户姓名", "客户名称"}, Required: true},
		{Key: "company", Label: "单位/公司", Aliases: []string{"单位", "公司", "公司名称"}},
		{Key: "phone", Label: "电话", Aliases: []string{"手机号", "手机", "联系电话"}},
		{Key: "email", Label: "邮箱", Aliases: []string{"电子邮箱"}},
		{Key: "position", Label: "职位"},
		{Key: "location", Label: "地区", Aliases: []string{"所在地区"}},
		{Key: "salesperson_name", Label: "负责业务员", Aliases: []string{"业务员"}},
		{Key: "training_name", Label: "培训名称", Aliases: []string{"课程名称"}},
		{Key: "training_date", Label: "培训日期", Type: FieldDate},
		{Key: "amount", Label: "金额", Aliases: []string{"缴费金额"}, Type: FieldNumber},
		{Key: "paid", Label: "是否缴费", Type: FieldBool},
		{Key: "notes", Label: "备注"},
	}),
	Experts: newSchema("专家", "experts", "expert", []Field{
		{Key: "name", Label: "姓名", Aliases: []string{"专家姓名"}, Required: true},
		{Key: "gender", Label: "性别"},
		{Key: "title", Label: "职称"},
		{Key: "field", Label: "研究领域", Aliases: []string{"领域", "专业领域"}},
		{Key: "phone", Label: "手机号", Aliases: []string{"电话", "手机", "联系电话"}},
		{Key: "email", Label: "邮箱", Aliases: []string{"电子邮箱"}},
		{Key: "organization", Label: "所在单位", Aliases: []string{"单位", "工作单位"}},
		{Key: "fee", Label: "课酬", Aliases: []string{"授课费用"}, Type: FieldNumber},
		{Key: "courses", Label: "授课方向", Aliases: []string{"主讲课程"}, Type: FieldList},
		{Key: "available", Label: "是否可用", Type: FieldBool},
		{Key: "bio", Label: "简介", Aliases: []string{"个人简介"}},
	}),
	Salespersons: newSchema("业务员", "salespersons", "salesperson", []Field{
		{Key: "name", Label: "姓名", Aliases: []string{"业务员姓名"}, Required: true},
		{Key: "phone", Label: "手机号", Aliases: []string{"电话", "手机", "联系电话"}},
		{Key: "email", Label: "邮箱", Aliases: []string{"电子邮箱"}},
		{Key: "department", Label: "部门"},
		{Key: "position", Label: "职位"},
		{Key: "team", Label: "团队", Aliases: []string{"小组"}},
		{Key: "join_date", Label: "入职日期", Type: FieldDate},
		{Key: "status", Label: "状态"},
		{Key: "sales_target", Label: "销售目标", Type: FieldNumber},
	}),
	Trainings: newSchema("培训", "training_sessions", "", []Field{
		{Key: "name", Label: "培训名称", Aliases: []string{"课程名称"}, Required: true},
		{Key: "start_date", Label: "开始日期", Aliases: []string{"培训日期"}, Type: FieldDate, Required: true},
		{Key: "end_date", Label: "结束日期", Type: FieldDate},
		{Key: "start_time", Label: "开始时间", Type: FieldTime},
		{Key: "end_time", Label: "结束时间", Type: FieldTime},
		{Key: "location", Label: "地点", Aliases: []string{"培训地点"}},
		{Key: "expert_name", Label: "讲师", Aliases: []string{"授课专家", "专家"}},
		{Key: "participant_count", Label: "参训人数", Type: FieldNumber},
		{Key: "capacity", Label: "人数上限", Aliases: []string{"容量"}, Type: FieldNumber},
		{Key: "price", Label: "价格", Aliases: []string{"费用"}, Type: FieldNumber},
		{Key: "type", Label: "培训类型"},
		{Key: "online", Label: "是否线上", Type: FieldBool},
		{Key: "tags", Label: "标签", Type: FieldList},
		{Key: "status", Label: "状态"},
		{Key: "notes", Label: "备注"},
	}),
}

func newSchema(label, table, role string, fields []Field) *schema {
	s := &schema{
		label:    label,
		table:    table,
		role:     role,
		fields:   fields,
		byHeader: make(map[string]Field),
		byKey:    make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		s.byKey[f.Key] = f
		s.byHeader[f.Label] = f
		for _, a := range f.Aliases {
			if _, taken := s.byHeader[a]; !taken {
				s.byHeader[a] = f
			}
		}
	}
	return s
}

// AllDataTypes en orden de presentación.
func AllDataTypes() []DataType {
	return []DataType{Customers, Experts, Salespersons, Trainings}
}

// ParseDataType valida el identificador recibido por la API.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemas[dt]; !ok {
		return "", fmt.Errorf("%w: tipo de datos %q", domain.ErrInvalidInput, s)
	}
	return dt, nil
}

// Valid indica si dt es una de las variantes conocidas.
func (dt DataType) Valid() bool {
	_, ok := schemas[dt]
	return ok
}

// Label nombre en chino para títulos y nombres de archivo.
func (dt DataType) Label() string {
	if s, ok := schemas[dt]; ok {
		return s.label
	}
	return string(dt)
}

// Table tabla de destino en el backend.
func (dt DataType) Table() string {
	if s, ok := schemas[dt]; ok {
		return s.table
	}
	return ""
}

// AccountBearing indica si las filas de este tipo pueden generar cuentas de usuario.
func (dt DataType) AccountBearing() bool {
	return dt.AccountRole() != ""
}

// AccountRole rol asignado a las cuentas generadas desde este tipo.
func (dt DataType) AccountRole() string {
	if s, ok := schemas[dt]; ok {
		return s.role
	}
	return ""
}

// Fields columnas conocidas en orden de plantilla.
func (dt DataType) Fields() []Field {
	s, ok := schemas[dt]
	if !ok {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Labels etiquetas de las columnas en orden de plantilla.
func (dt DataType) Labels() []string {
	fields := dt.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label
	}
	return out
}

// FieldByHeader resuelve la cabecera (ya recortada) a su campo.
func (dt DataType) FieldByHeader(header string) (Field, bool) {
	s, ok := schemas[dt]
	if !ok {
		return Field{}, false
	}
	f, ok := s.byHeader[header]
	return f, ok
}

// FieldByKey busca un campo por su clave interna.
func (dt DataType) FieldByKey(key string) (Field, bool) {
	s, ok := schemas[dt]
	if !ok {
		return Field{}, false
	}
	f, ok := s.byKey[key]
	return f, ok
}
