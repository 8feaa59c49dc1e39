package controle

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/shopspring/decimal"
)

// Permissoes decide campos que exigem permissão específica dentro de uma
// mesma rota (calibragem).
type Permissoes interface {
	Permitido(u *models.Usuario, perms ...string) bool
}

const permCalibragem = "controle.calibragem"

type Handler struct {
	Servico    *Servico
	Permissoes Permissoes
	Erros      *response.ErrorHandler
}

func NewHandler(s *Servico, perms Permissoes, erros *response.ErrorHandler) *Handler {
	return &Handler{Servico: s, Permissoes: perms, Erros: erros}
}

// GET /api/controle?status=&ug_id=&sem_ug=&busca=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagina, porPagina := response.Pagina(r)
	f := Filtro{
		Busca:  q.Get("busca"),
		Offset: response.Offset(pagina, porPagina),
		Limite: porPagina,
	}
	if s := q.Get("status"); s != "" {
		n, ok := Normalizar(StatusTroca(s))
		if !ok {
			h.Erros.Handle(w, r, apperrors.Validation("status inválido").
				WithFields(map[string]string{"status": "deve ser Esteira, Em andamento ou Associado"}))
			return
		}
		f.Status = n
	}
	if v, err := strconv.ParseUint(q.Get("ug_id"), 10, 64); err == nil {
		id := uint(v)
		f.UGID = &id
	}
	f.SemUG, _ = strconv.ParseBool(q.Get("sem_ug"))
	if u, ok := auth.UsuarioDoContexto(r.Context()); ok && !u.VeTodasPropostas() {
		id := u.ID
		f.ConsultorID = &id
	}

	itens, total, err := h.Servico.Repository.Listar(h.Servico.DB.WithContext(r.Context()), f)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, response.Paginado[ControleClube]{
		Itens: itens, Total: total, Pagina: pagina, PorPagina: porPagina,
	})
}

// carregar lê o id da rota e o registro; consultores e vendedores só
// acessam (lendo ou alterando) os próprios.
func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*ControleClube, bool) {
	id, err := response.ID(r, "id")
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, false
	}
	c, err := h.Servico.Repository.BuscarPorID(h.Servico.DB.WithContext(r.Context()), id)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, false
	}
	if !podeAcessar(r, c) {
		response.Proibido(w, "Você não tem acesso a este registro")
		return nil, false
	}
	return c, true
}

func podeAcessar(r *http.Request, c *ControleClube) bool {
	u, ok := auth.UsuarioDoContexto(r.Context())
	if !ok || u.VeTodasPropostas() {
		return ok
	}
	return c.ConsultorID != nil && *c.ConsultorID == u.ID
}

// GET /api/controle/{id}
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	d, err := h.Servico.Detalhar(r.Context(), c)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, d)
}

type atualizarRequest struct {
	CalibragemIndividual *decimal.Decimal `json:"calibragemIndividual"`
	LimparCalibragem     bool             `json:"limparCalibragem"`
	DescontoTarifa       *decimal.Decimal `json:"descontoTarifa"`
	DescontoBandeira     *decimal.Decimal `json:"descontoBandeira"`
	HerdarDescontos      bool             `json:"herdarDescontos"`
	DataTitularidade     *time.Time       `json:"dataTitularidade"`
	ApelidoUC            *string          `json:"apelidoUc"`
}

// PUT /api/controle/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	atual, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req atualizarRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}

	if req.CalibragemIndividual != nil || req.LimparCalibragem {
		u, _ := auth.UsuarioDoContexto(r.Context())
		if h.Permissoes != nil && !h.Permissoes.Permitido(u, permCalibragem) {
			response.Proibido(w, "Você não tem permissão para alterar a calibragem")
			return
		}
	}

	c, err := h.Servico.Atualizar(r.Context(), atual.ID, Alteracao{
		CalibragemIndividual: req.CalibragemIndividual,
		LimparCalibragem:     req.LimparCalibragem,
		DescontoTarifa:       req.DescontoTarifa,
		DescontoBandeira:     req.DescontoBandeira,
		HerdarDescontos:      req.HerdarDescontos,
		DataTitularidade:     req.DataTitularidade,
		ApelidoUC:            req.ApelidoUC,
	}, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, c)
}

type statusRequest struct {
	Status StatusTroca `json:"status"`
	Motivo string      `json:"motivo"`
}

// PATCH /api/controle/{id}/status
func (h *Handler) AlterarStatus(w http.ResponseWriter, r *http.Request) {
	atual, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	c, err := h.Servico.AlterarStatus(r.Context(), atual.ID, req.Status, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, c)
}

// POST /api/controle/{id}/correcao
// Somente admin: pode voltar ou pular estados.
func (h *Handler) Corrigir(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UsuarioDoContexto(r.Context())
	if !ok || u.Role != models.RoleAdmin {
		response.Proibido(w, "Correção de status restrita a administradores")
		return
	}
	id, err := response.ID(r, "id")
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	var req statusRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if req.Motivo == "" {
		h.Erros.Handle(w, r, apperrors.Validation("motivo é obrigatório").WithFields(map[string]string{"motivo": "obrigatório"}))
		return
	}
	c, err := h.Servico.Corrigir(r.Context(), id, req.Status, req.Motivo, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, c)
}

type ugRequest struct {
	UGID *uint `json:"ugId"`
}

// PUT /api/controle/{id}/ug
func (h *Handler) AtribuirUG(w http.ResponseWriter, r *http.Request) {
	atual, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req ugRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	c, err := h.Servico.AtribuirUG(r.Context(), atual.ID, req.UGID, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, c)
}

// GET /api/controle/validacao
func (h *Handler) Validar(w http.ResponseWriter, r *http.Request) {
	itens, err := h.Servico.Repository.Inconsistencias(h.Servico.DB.WithContext(r.Context()))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, map[string]any{
		"valido":          len(itens) == 0,
		"inconsistencias": itens,
	})
}

// POST /api/controle/normalizar
func (h *Handler) Normalizar(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UsuarioDoContexto(r.Context())
	if !ok || u.Role != models.RoleAdmin {
		response.Proibido(w, "Normalização restrita a administradores")
		return
	}
	res, err := h.Servico.NormalizarLegados(r.Context(), auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, res)
}
