// Package permission contiene el catálogo fijo de capacidades y el evaluador que decide,
// a partir de la sesión de la petición, si una acción está permitida.
package permission

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/training-crm-api/internal/domain"
)

// Capability identificador opaco de un permiso (ej. "customer_add").
type Capability string

// Grupos funcionales del catálogo (prefijo de la capacidad).
const (
	GroupCustomer    = "customer"
	GroupTraining    = "training"
	GroupExpert      = "expert"
	GroupSalesperson = "salesperson"
	GroupProspectus  = "prospectus"
	GroupPoster      = "poster"
	GroupData        = "data"
	GroupSystem      = "system"
)

// Catálogo. Es fijo en tiempo de compilación: no hay altas ni bajas en runtime.
const (
	CustomerView   Capability = "customer_view"
	CustomerAdd    Capability = "customer_add"
	CustomerEdit   Capability = "customer_edit"
	CustomerDelete Capability = "customer_delete"
	CustomerExport Capability = "customer_export"

	TrainingView              Capability = "training_view"
	TrainingAdd               Capability = "training_add"
	TrainingEdit              Capability = "training_edit"
	TrainingDelete            Capability = "training_delete"
	TrainingParticipantManage Capability = "training_participant_manage"
	TrainingExport            Capability = "training_export"

	ExpertView   Capability = "expert_view"
	ExpertAdd    Capability = "expert_add"
	ExpertEdit   Capability = "expert_edit"
	ExpertDelete Capability = "expert_delete"

	SalespersonView   Capability = "salesperson_view"
	SalespersonAdd    Capability = "salesperson_add"
	SalespersonEdit   Capability = "salesperson_edit"
	SalespersonDelete Capability = "salesperson_delete"

	ProspectusView   Capability = "prospectus_view"
	ProspectusUpload Capability = "prospectus_upload"
	ProspectusDelete Capability = "prospectus_delete"

	PosterGenerate Capability = "poster_generate"
	PosterView     Capability = "poster_view"

	DataImport           Capability = "data_import"
	DataExport           Capability = "data_export"
	DataDownloadTemplate Capability = "data_download_template"

	SystemPermissionManage Capability = "system_permission_manage"
	SystemUserManage       Capability = "system_user_manage"
	SystemAuditView        Capability = "system_audit_view"
)

// Definition entrada del catálogo con su grupo y etiqueta para la UI de administración.
type Definition struct {
	Capability Capability `json:"capability"`
	Group      string     `json:"group"`
	Label      string     `json:"label"`
}

var catalog = []Definition{
	{CustomerView, GroupCustomer, "查看客户"},
	{CustomerAdd, GroupCustomer, "添加客户"},
	{CustomerEdit, GroupCustomer, "编辑客户"},
	{CustomerDelete, GroupCustomer, "删除客户"},
	{CustomerExport, GroupCustomer, "导出客户"},

	{TrainingView, GroupTraining, "查看培训"},
	{TrainingAdd, GroupTraining, "添加培训"},
	{TrainingEdit, GroupTraining, "编辑培训"},
	{TrainingDelete, GroupTraining, "删除培训"},
	{TrainingParticipantManage, GroupTraining, "管理参训人员"},
	{TrainingExport, GroupTraining, "导出培训"},

	{ExpertView, GroupExpert, "查看专家"},
	{ExpertAdd, GroupExpert, "添加专家"},
	{ExpertEdit, GroupExpert, "编辑专家"},
	{ExpertDelete, GroupExpert, "删除专家"},

	{SalespersonView, GroupSalesperson, "查看业务员"},
	{SalespersonAdd, GroupSalesperson, "添加业务员"},
	{SalespersonEdit, GroupSalesperson, "编辑业务员"},
	{SalespersonDelete, GroupSalesperson, "删除业务员"},

	{ProspectusView, GroupProspectus, "查看招生简章"},
	{ProspectusUpload, GroupProspectus, "上传招生简章"},
	{ProspectusDelete, GroupProspectus, "删除招生简章"},

	{PosterGenerate, GroupPoster, "生成海报"},
	{PosterView, GroupPoster, "查看海报"},

	{DataImport, GroupData, "导入数据"},
	{DataExport, GroupData, "导出数据"},
	{DataDownloadTemplate, GroupData, "下载模板"},

	{SystemPermissionManage, GroupSystem, "权限管理"},
	{SystemUserManage, GroupSystem, "用户管理"},
	{SystemAuditView, GroupSystem, "查看审计日志"},
}

var known = func() map[Capability]Definition {
	m := make(map[Capability]Definition, len(catalog))
	for _, d := range catalog {
		m[d.Capability] = d
	}
	return m
}()

// Catalog devuelve una copia del catálogo en orden de presentación.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// All devuelve todas las capacidades del catálogo.
func All() []Capability {
	out := make([]Capability, len(catalog))
	for i, d := range catalog {
		out[i] = d.Capability
	}
	return out
}

// Grouped agrupa el catálogo por prefijo funcional.
func Grouped() map[string][]Definition {
	out := make(map[string][]Definition)
	for _, d := range catalog {
		out[d.Group] = append(out[d.Group], d)
	}
	return out
}

// Groups devuelve los nombres de grupo en orden de aparición.
func Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range catalog {
		if !seen[d.Group] {
			seen[d.Group] = true
			out = append(out, d.Group)
		}
	}
	return out
}

// IsKnown indica si c pertenece al catálogo.
func IsKnown(c Capability) bool {
	_, ok := known[c]
	return ok
}

// Lookup devuelve la definición de c.
func Lookup(c Capability) (Definition, bool) {
	d, ok := known[c]
	return d, ok
}

// Parse convierte strings en capacidades validando contra el catálogo.
// Devuelve un error que envuelve domain.ErrUnknownCapability listando las desconocidas.
// El resultado no tiene duplicados y está ordenado.
func Parse(raw []string) ([]Capability, error) {
	set := make(map[Capability]struct{}, len(raw))
	var unknown []string
	for _, r := range raw {
		c := Capability(r)
		if !IsKnown(c) {
			unknown = append(unknown, r)
			continue
		}
		set[c] = struct{}{}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCapability, strings.Join(unknown, ", "))
	}
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// DefaultsForRole capacidades iniciales asignadas al provisionar una cuenta.
// Los administradores las editan después desde la gestión de permisos.
func DefaultsForRole(role string) []Capability {
	switch role {
	case "admin":
		return All()
	case "salesperson":
		return []Capability{
			CustomerView, CustomerAdd, CustomerEdit, CustomerExport,
			TrainingView, TrainingParticipantManage,
			ExpertView, ProspectusView, PosterView, PosterGenerate,
			DataExport, DataDownloadTemplate,
		}
	case "expert":
		return []Capability{TrainingView, ProspectusView, PosterView}
	default:
		return nil
	}
}
