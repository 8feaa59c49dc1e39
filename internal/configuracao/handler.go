package configuracao

import (
	"net/http"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// chaves cuja alteração gera alerta
var chavesCriticas = map[string]bool{
	ChaveCalibragemGlobal: true,
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Auditoria  *auditoria.Servico
	Erros      *response.ErrorHandler
}

func NewHandler(db *gorm.DB, audit *auditoria.Servico, erros *response.ErrorHandler) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Auditoria: audit, Erros: erros}
}

type atualizarRequest struct {
	Valor     *string `json:"valor"`
	Tipo      *Tipo   `json:"tipo"`
	Grupo     *string `json:"grupo"`
	Descricao *string `json:"descricao"`
}

// GET /api/configuracoes?grupo=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	itens, err := h.Repository.Listar(h.DB.WithContext(r.Context()), r.URL.Query().Get("grupo"))
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, itens)
}

// GET /api/configuracoes/{chave}
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	c, err := h.Repository.BuscarPorChave(h.DB.WithContext(r.Context()), mux.Vars(r)["chave"])
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, c)
}

// PUT /api/configuracoes/{chave}
// Cria a chave quando ela não existe e o tipo é informado.
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	chave := mux.Vars(r)["chave"]
	var req atualizarRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if req.Valor == nil {
		h.Erros.Handle(w, r, apperrors.Validation("valor é obrigatório").WithFields(map[string]string{"valor": "obrigatório"}))
		return
	}

	origem := auditoria.OrigemDaRequisicao(r)
	var (
		salvo *Configuracao
		reg   *auditoria.Registro
	)
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		atual, err := h.Repository.BuscarPorChave(tx, chave)
		acao := auditoria.AcaoAtualizar
		var antes *Configuracao
		switch {
		case apperrors.IsCategory(err, apperrors.CategoryNotFound):
			if req.Tipo == nil {
				return err
			}
			atual = &Configuracao{Chave: chave}
			acao = auditoria.AcaoCriar
		case err != nil:
			return err
		default:
			copia := *atual
			antes = &copia
		}

		atual.Valor = *req.Valor
		if req.Tipo != nil {
			atual.Tipo = *req.Tipo
		}
		if req.Grupo != nil {
			atual.Grupo = *req.Grupo
		}
		if req.Descricao != nil {
			atual.Descricao = *req.Descricao
		}
		atual.UpdatedBy = origem.UsuarioID

		if err := h.Repository.Salvar(tx, atual); err != nil {
			return err
		}
		var antesAny any
		if antes != nil {
			antesAny = antes
		}
		reg, err = h.Auditoria.Registrar(r.Context(), tx, auditoria.Entrada{
			Entidade:   "configuracoes",
			EntidadeID: atual.ID,
			Acao:       acao,
			Antes:      antesAny,
			Depois:     atual,
			Contexto:   map[string]any{"chave": chave},
			EventoTipo: "configuracao_alterada",
			Modulo:     "configuracoes",
			Critico:    chavesCriticas[chave],
			Origem:     origem,
		})
		salvo = atual
		return err
	})
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	h.Auditoria.Alertar(r.Context(), reg)
	response.Sucesso(w, http.StatusOK, salvo)
}
