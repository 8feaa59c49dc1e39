package unidade

import (
	"net/http"
	"strconv"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Auditoria  *auditoria.Servico
	Erros      *response.ErrorHandler
}

func NewHandler(db *gorm.DB, audit *auditoria.Servico, erros *response.ErrorHandler) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Auditoria: audit, Erros: erros}
}

// GET /api/unidades?gerador=&busca=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	pagina, porPagina := response.Pagina(r)
	f := Filtro{
		Busca:  r.URL.Query().Get("busca"),
		Offset: response.Offset(pagina, porPagina),
		Limite: porPagina,
	}
	if v, err := strconv.ParseBool(r.URL.Query().Get("gerador")); err == nil {
		f.Gerador = &v
	}
	if u, ok := auth.UsuarioDoContexto(r.Context()); ok && !u.VeTodasPropostas() {
		// UGs são compartilhadas; só as UCs são restritas ao dono
		if f.Gerador == nil || !*f.Gerador {
			id := u.ID
			f.ConsultorID = &id
		}
	}

	itens, total, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, response.Paginado[UnidadeConsumidora]{
		Itens: itens, Total: total, Pagina: pagina, PorPagina: porPagina,
	})
}

// carregar lê a unidade da rota. Consultores e vendedores alteram só as
// próprias; para leitura, UGs são compartilhadas.
func (h *Handler) carregar(w http.ResponseWriter, r *http.Request, escrita bool) (*UnidadeConsumidora, bool) {
	id, err := response.ID(r, "id")
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, false
	}
	u, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, false
	}
	if !podeAcessar(r, u, escrita) {
		response.Proibido(w, "Você não tem acesso a esta unidade")
		return nil, false
	}
	return u, true
}

func podeAcessar(r *http.Request, u *UnidadeConsumidora, escrita bool) bool {
	ator, ok := auth.UsuarioDoContexto(r.Context())
	if !ok || ator.VeTodasPropostas() {
		return ok
	}
	if u.ConsultorID != nil && *u.ConsultorID == ator.ID {
		return true
	}
	return u.Gerador && !escrita
}

// GET /api/unidades/{id}
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	u, ok := h.carregar(w, r, false)
	if !ok {
		return
	}
	response.Sucesso(w, http.StatusOK, u)
}

// POST /api/unidades
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req UnidadeRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	u := &UnidadeConsumidora{}
	req.Aplicar(u)
	if ator, ok := auth.UsuarioDoContexto(r.Context()); ok {
		id := ator.ID
		u.ConsultorID = &id
	}

	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.Salvar(tx, u); err != nil {
			return err
		}
		_, err := h.Auditoria.Registrar(r.Context(), tx, auditoria.Entrada{
			Entidade: "unidades_consumidoras", EntidadeID: u.ID, Acao: auditoria.AcaoCriar,
			Depois: u, Modulo: "unidades", Origem: auditoria.OrigemDaRequisicao(r),
		})
		return err
	})
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusCreated, u)
}

// PUT /api/unidades/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	atual, ok := h.carregar(w, r, true)
	if !ok {
		return
	}
	var req UnidadeRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}

	var salvo *UnidadeConsumidora
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		u, err := h.Repository.BuscarPorID(tx, atual.ID)
		if err != nil {
			return err
		}
		antes := *u
		req.Aplicar(u)
		if err := h.Repository.Salvar(tx, u); err != nil {
			return err
		}
		salvo = u
		_, err = h.Auditoria.Registrar(r.Context(), tx, auditoria.Entrada{
			Entidade: "unidades_consumidoras", EntidadeID: u.ID, Acao: auditoria.AcaoAtualizar,
			Antes: antes, Depois: u, Modulo: "unidades", Origem: auditoria.OrigemDaRequisicao(r),
		})
		return err
	})
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, salvo)
}

// POST /api/unidades/{id}/converter-ug
func (h *Handler) ConverterUG(w http.ResponseWriter, r *http.Request) {
	atual, ok := h.carregar(w, r, true)
	if !ok {
		return
	}
	var req ConverterUGRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if req.FatorCapacidade == nil {
		h.Erros.Handle(w, r, apperrors.Validation("dados inválidos").
			WithFields(map[string]string{"fatorCapacidade": "obrigatório para unidade geradora"}))
		return
	}

	var salvo *UnidadeConsumidora
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		u, err := h.Repository.BuscarPorID(tx, atual.ID)
		if err != nil {
			return err
		}
		antes := *u
		if err := u.ConverterEmUG(req.NomeUsina, req.PotenciaCC, req.PotenciaCA, *req.FatorCapacidade); err != nil {
			return err
		}
		if err := h.Repository.Salvar(tx, u); err != nil {
			return err
		}
		salvo = u
		_, err = h.Auditoria.Registrar(r.Context(), tx, auditoria.Entrada{
			Entidade: "unidades_consumidoras", EntidadeID: u.ID, Acao: auditoria.AcaoAtualizar,
			Antes: antes, Depois: u, EventoTipo: "conversao_ug", Modulo: "unidades",
			Origem: auditoria.OrigemDaRequisicao(r),
		})
		return err
	})
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, salvo)
}
