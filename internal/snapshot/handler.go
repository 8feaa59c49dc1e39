package snapshot

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

// GET /api/snapshots
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	itens, err := h.Servico.Listar(r.Context())
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, itens)
}

// GET /api/snapshots/{periodo}
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	res, err := h.Servico.Buscar(r.Context(), mux.Vars(r)["periodo"])
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, res)
}

type gerarRequest struct {
	Periodo string `json:"periodo"`
}

// POST /api/snapshots
// Sem período no corpo, gera o mês corrente.
func (h *Handler) Gerar(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UsuarioDoContexto(r.Context())
	if !ok || u.Role != models.RoleAdmin {
		response.Proibido(w, "Geração de snapshot restrita a administradores")
		return
	}
	var req gerarRequest
	if r.ContentLength != 0 {
		if err := response.Decodificar(r, &req); err != nil {
			h.Erros.Handle(w, r, err)
			return
		}
	}
	if req.Periodo == "" {
		req.Periodo = h.Servico.now().Format(FormatoPeriodo)
	}
	res, err := h.Servico.Gerar(r.Context(), req.Periodo, auditoria.OrigemDaRequisicao(r))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusCreated, res)
}
