package usuario

import (
	"net/http"
	"slices"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/permissao"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/KromaEnergia/api-controle-clube/internal/utils"
	"gorm.io/gorm"
)

const modulo = "usuarios"

// papéis que não-superusuários podem criar na própria equipe
var papeisDeEquipe = []models.Role{models.RoleConsultor, models.RoleVendedor}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Auditoria  *auditoria.Servico
	Erros      *response.ErrorHandler
}

func NewHandler(db *gorm.DB, audit *auditoria.Servico, erros *response.ErrorHandler) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Auditoria: audit, Erros: erros}
}

func superusuario(u *models.Usuario) bool {
	return u != nil && slices.Contains(permissao.PapeisSuperusuario, u.Role)
}

// alcanca: superusuário vê todos; os demais, a si e à própria equipe.
func alcanca(ator, alvo *models.Usuario) bool {
	if superusuario(ator) || ator.ID == alvo.ID {
		return true
	}
	return alvo.GerenteID != nil && *alvo.GerenteID == ator.ID
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (ator, alvo *models.Usuario, ok bool) {
	ator, ok = auth.UsuarioDoContexto(r.Context())
	if !ok {
		response.NaoAutenticado(w, auth.ErrAutenticacao.Message, auth.CodeAuthError)
		return nil, nil, false
	}
	id, err := response.ID(r, "id")
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, nil, false
	}
	alvo, err = h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return nil, nil, false
	}
	if !alcanca(ator, alvo) {
		response.Proibido(w, "Você não tem acesso a este usuário")
		return nil, nil, false
	}
	return ator, alvo, true
}

// GET /api/usuarios?role=&ativos=&busca=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	ator, ok := auth.UsuarioDoContexto(r.Context())
	if !ok {
		response.NaoAutenticado(w, auth.ErrAutenticacao.Message, auth.CodeAuthError)
		return
	}
	q := r.URL.Query()
	pagina, porPagina := response.Pagina(r)
	f := Filtro{
		Role:   models.Role(q.Get("role")),
		Busca:  q.Get("busca"),
		Offset: response.Offset(pagina, porPagina),
		Limite: porPagina,
	}
	switch q.Get("ativos") {
	case "true":
		v := true
		f.Ativos = &v
	case "false":
		v := false
		f.Ativos = &v
	}
	if !superusuario(ator) {
		id := ator.ID
		f.GerenteID = &id
		f.SomenteIDs = []uint{id}
	}

	itens, total, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, response.Paginado[models.Usuario]{
		Itens: itens, Total: total, Pagina: pagina, PorPagina: porPagina,
	})
}

// GET /api/usuarios/{id}
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	_, alvo, ok := h.carregar(w, r)
	if !ok {
		return
	}
	response.Sucesso(w, http.StatusOK, alvo)
}

type CriadoResponse struct {
	Usuario         *models.Usuario `json:"usuario"`
	SenhaTemporaria string          `json:"senhaTemporaria,omitempty"`
}

// POST /api/usuarios
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	ator, ok := auth.UsuarioDoContexto(r.Context())
	if !ok {
		response.NaoAutenticado(w, auth.ErrAutenticacao.Message, auth.CodeAuthError)
		return
	}
	var req CriarRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if err := apperrors.DeValidacao(req.Validate()); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if !superusuario(ator) {
		if !slices.Contains(papeisDeEquipe, req.Role) {
			response.Proibido(w, "Somente administradores atribuem o papel "+string(req.Role))
			return
		}
		id := ator.ID
		req.GerenteID = &id
	}

	var temporaria string
	senha := req.Senha
	if senha == "" {
		var err error
		if temporaria, err = utils.GerarSenhaTemporaria(); err != nil {
			h.Erros.Handle(w, r, err)
			return
		}
		senha = temporaria
	}
	hash, err := utils.HashSenha(senha)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}

	u := req.Usuario()
	u.Senha = hash
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.Salvar(tx, u); err != nil {
			return err
		}
		_, err := h.Auditoria.Registrar(r.Context(), tx, auditoria.Entrada{
			Entidade:   "usuario",
			EntidadeID: u.ID,
			Acao:       auditoria.AcaoCriar,
			Depois:     u,
			Modulo:     modulo,
			Origem:     auditoria.OrigemDaRequisicao(r),
		})
		return err
	})
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusCreated, CriadoResponse{Usuario: u, SenhaTemporaria: temporaria})
}

// PUT /api/usuarios/{id}
// Papel, equipe e ativação só mudam por superusuário.
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	ator, alvo, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req AtualizarRequest
	if err := response.Decodificar(r, &req); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if err := apperrors.DeValidacao(req.Validate()); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	if !superusuario(ator) && (req.Role != nil || req.GerenteID != nil || req.IsActive != nil) {
		response.Proibido(w, "Somente administradores alteram papel, gerente ou ativação")
		return
	}
	if err := h.gravar(r, alvo, auditoria.AcaoAtualizar, "", req.Aplicar); err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, alvo)
}

// DELETE /api/usuarios/{id}
// Usuários nunca são apagados: a exclusão desativa.
func (h *Handler) Desativar(w http.ResponseWriter, r *http.Request) {
	ator, alvo, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if ator.ID == alvo.ID {
		h.Erros.Handle(w, r, apperrors.Conflict("não é possível desativar o próprio usuário"))
		return
	}
	err := h.gravar(r, alvo, auditoria.AcaoAtualizar, "desativacao", func(u *models.Usuario) {
		u.IsActive = false
	})
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.SucessoComMensagem(w, http.StatusOK, "Usuário desativado", alvo)
}

// POST /api/usuarios/{id}/redefinir-senha
func (h *Handler) RedefinirSenha(w http.ResponseWriter, r *http.Request) {
	_, alvo, ok := h.carregar(w, r)
	if !ok {
		return
	}
	temporaria, err := utils.GerarSenhaTemporaria()
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	hash, err := utils.HashSenha(temporaria)
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	err = h.gravar(r, alvo, auditoria.AcaoAtualizar, "redefinicao_senha", func(u *models.Usuario) { u.Senha = hash })
	if err != nil {
		h.Erros.Handle(w, r, err)
		return
	}
	response.Sucesso(w, http.StatusOK, CriadoResponse{Usuario: alvo, SenhaTemporaria: temporaria})
}

// gravar aplica fn, salva e audita na mesma transação.
func (h *Handler) gravar(r *http.Request, alvo *models.Usuario, acao, evento string, fn func(*models.Usuario)) error {
	antes := *alvo
	fn(alvo)
	return h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.Salvar(tx, alvo); err != nil {
			return err
		}
		_, err := h.Auditoria.Registrar(r.Context(), tx, auditoria.Entrada{
			Entidade:   "usuario",
			EntidadeID: alvo.ID,
			Acao:       acao,
			Antes:      antes,
			Depois:     alvo,
			EventoTipo: evento,
			Modulo:     modulo,
			Origem:     auditoria.OrigemDaRequisicao(r),
		})
		return err
	})
}
