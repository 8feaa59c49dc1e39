package proposta

import (
	"net/http"

	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/gorilla/mux"
)

type Handler struct {
	Servico *Servico
	Erros   *response.ErrorHandler
}

func NewHandler(s *Servico, erros *response.ErrorHandler) *Handler {
	return &Handler{Servico: s, Erros: erros}
}

// consultores e vendedores só enxergam as próprias propostas
func restrito(r *http.Request) (*models.Usuario, bool) {
	u, ok := auth.UsuarioDoContexto(r.Context())
	return u, ok && !u.VeTodasPropostas()
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Proposta, bool) {
	id, err := response.ID(r, "id")
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, false
	}
	p, err := h.Servico.Repository.BuscarPorID(h.Servico.DB.WithContext(r.Context()), id)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, false
	}
	if u, ok := restrito(r); ok && (p.ConsultorID == nil || *p.ConsultorID != u.ID) {
		response.Proibido(w, "Você não tem acesso a esta proposta")
		return nil, false
	}
	return p, true
}

// GET /api/propostas?busca=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	pagina, porPagina := response.Pagina(r)
	f := Filtro{
		Busca:  r.URL.Query().Get("busca"),
		Offset: response.Offset(pagina, porPagina),
		Limite: porPagina,
	}
	if u, ok := restrito(r); ok {
		id := u.ID
		f.ConsultorID = &id
	}
	itens, total, err := h.Servico.Repository.Listar(h.Servico.DB.WithContext(r.Context()), f)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, response.Paginado[Proposta]{
		Itens: itens, Total: total, Pagina: pagina, PorPagina: porPagina,
	})
}

// GET /api/propostas/{id}
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	p, ok := h.carregar(w, r)
	if !ok {
		return
	}
	response.Sucesso(w, http.StatusOK, p)
}

// POST /api/propostas
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req PropostaRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if u, ok := restrito(r); ok {
		id := u.ID
		req.ConsultorID = &id
	}
	var p Proposta
	req.Aplicar(&p)
	if err := h.Servico.Criar(r.Context(), &p, auditoria.OrigemDaRequisicao(r)); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusCreated, p)
}

// PUT /api/propostas/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	atual, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req PropostaRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if _, ok := restrito(r); ok {
		// não pode transferir a proposta para outro consultor
		req.ConsultorID = atual.ConsultorID
	}
	p, err := h.Servico.Atualizar(r.Context(), atual.ID, req.Aplicar, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, p)
}

// DELETE /api/propostas/{id}
func (h *Handler) Remover(w http.ResponseWriter, r *http.Request) {
	p, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if err := h.Servico.Remover(r.Context(), p.ID, auditoria.OrigemDaRequisicao(r)); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Mensagem(w, http.StatusOK, "Proposta removida")
}

// PATCH /api/propostas/{id}/ucs/{numero}/status
func (h *Handler) AlterarStatusUC(w http.ResponseWriter, r *http.Request) {
	p, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req StatusUCRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	out, err := h.Servico.AlterarStatusUC(r.Context(), p.ID, mux.Vars(r)["numero"], req.Status, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, out)
}
