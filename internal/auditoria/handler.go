package auditoria

import (
	"net/http"
	"strconv"

	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Erros      *response.ErrorHandler
}

func NewHandler(db *gorm.DB, erros *response.ErrorHandler) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Erros: erros}
}

// GET /api/auditoria?entidade=&entidade_id=&modulo=&usuario_id=&critico=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagina, porPagina := response.Pagina(r)

	f := Filtro{
		Entidade: q.Get("entidade"),
		Modulo:   q.Get("modulo"),
		Offset:   response.Offset(pagina, porPagina),
		Limite:   porPagina,
	}
	if v, err := strconv.ParseUint(q.Get("entidade_id"), 10, 64); err == nil {
		f.EntidadeID = uint(v)
	}
	if v, err := strconv.ParseUint(q.Get("usuario_id"), 10, 64); err == nil {
		f.UsuarioID = uint(v)
	}
	if v, err := strconv.ParseBool(q.Get("critico")); err == nil {
		f.Critico = &v
	}

	itens, total, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, response.Paginado[Registro]{
		Itens:     itens,
		Total:     total,
		Pagina:    pagina,
		PorPagina: porPagina,
	})
}
