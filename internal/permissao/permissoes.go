// Package permissao resolve papel -> permissões e protege rotas por permissão.
package permissao

import (
	"sort"

	"github.com/KromaEnergia/api-controle-clube/internal/models"
)

// Permissões do catálogo.
const (
	DashboardView = "dashboard.view"

	UsuariosView   = "usuarios.view"
	UsuariosCreate = "usuarios.create"
	UsuariosEdit   = "usuarios.edit"
	UsuariosDelete = "usuarios.delete"

	PropostasView         = "propostas.view"
	PropostasCreate       = "propostas.create"
	PropostasEdit         = "propostas.edit"
	PropostasDelete       = "propostas.delete"
	PropostasChangeStatus = "propostas.change_status"

	UnidadesView      = "unidades.view"
	UnidadesCreate    = "unidades.create"
	UnidadesEdit      = "unidades.edit"
	UnidadesDelete    = "unidades.delete"
	UnidadesConvertUG = "unidades.convert_ug"

	ControleView       = "controle.view"
	ControleCreate     = "controle.create"
	ControleEdit       = "controle.edit"
	ControleDelete     = "controle.delete"
	ControleCalibragem = "controle.calibragem"
	ControleManageUG   = "controle.manage_ug"

	UGsView   = "ugs.view"
	UGsCreate = "ugs.create"
	UGsEdit   = "ugs.edit"
	UGsDelete = "ugs.delete"

	ProspecView   = "prospec.view"
	ProspecCreate = "prospec.create"
	ProspecEdit   = "prospec.edit"
	ProspecDelete = "prospec.delete"

	RelatoriosView   = "relatorios.view"
	RelatoriosExport = "relatorios.export"

	ConfiguracoesView = "configuracoes.view"
	ConfiguracoesEdit = "configuracoes.edit"

	NotificacoesView = "notificacoes.view"

	AuditoriaView = "auditoria.view"
)

// Catalogo devolve todas as permissões conhecidas, ordenadas.
func Catalogo() []string {
	c := []string{
		DashboardView,
		UsuariosView, UsuariosCreate, UsuariosEdit, UsuariosDelete,
		PropostasView, PropostasCreate, PropostasEdit, PropostasDelete, PropostasChangeStatus,
		UnidadesView, UnidadesCreate, UnidadesEdit, UnidadesDelete, UnidadesConvertUG,
		ControleView, ControleCreate, ControleEdit, ControleDelete, ControleCalibragem, ControleManageUG,
		UGsView, UGsCreate, UGsEdit, UGsDelete,
		ProspecView, ProspecCreate, ProspecEdit, ProspecDelete,
		RelatoriosView, RelatoriosExport,
		ConfiguracoesView, ConfiguracoesEdit,
		NotificacoesView,
		AuditoriaView,
	}
	sort.Strings(c)
	return c
}

var consultor = []string{
	DashboardView,
	UsuariosView, UsuariosCreate, UsuariosEdit,
	PropostasView, PropostasCreate, PropostasEdit, PropostasChangeStatus,
	UnidadesView, UnidadesCreate, UnidadesEdit, UnidadesConvertUG,
	ControleView, ControleCreate, ControleEdit, ControleCalibragem, ControleManageUG,
	ProspecView, ProspecCreate, ProspecEdit,
	ConfiguracoesView,
	NotificacoesView,
}

var vendedor = []string{
	DashboardView,
	UsuariosView,
	PropostasView, PropostasCreate, PropostasEdit,
	UnidadesView, UnidadesCreate, UnidadesEdit,
	ProspecView, ProspecCreate, ProspecEdit,
	ControleView,
	NotificacoesView,
}

// Tabela é imutável depois de construída: não há setter e Permissoes devolve cópia.
type Tabela struct {
	papeis map[models.Role]map[string]struct{}
}

// NovaTabela monta a tabela a partir de papel -> lista de permissões.
func NovaTabela(def map[models.Role][]string) Tabela {
	t := Tabela{papeis: make(map[models.Role]map[string]struct{}, len(def))}
	for role, perms := range def {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		t.papeis[role] = set
	}
	return t
}

// TabelaPadrao é a tabela papel -> permissões do sistema.
// analista não aparece: é liberado pelo bypass do Resolver.
func TabelaPadrao() Tabela {
	gerente := append(append([]string{}, consultor...), RelatoriosView, UGsView)
	return NovaTabela(map[models.Role][]string{
		models.RoleAdmin:     Catalogo(),
		models.RoleConsultor: consultor,
		models.RoleGerente:   gerente,
		models.RoleVendedor:  vendedor,
	})
}

func (t Tabela) Tem(role models.Role, perm string) bool {
	_, ok := t.papeis[role][perm]
	return ok
}

// Permissoes lista as permissões do papel, ordenadas.
func (t Tabela) Permissoes(role models.Role) []string {
	set := t.papeis[role]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
