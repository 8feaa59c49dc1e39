package permissao

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/gorilla/mux"
)

// PapeisSuperusuario passam por qualquer checagem de permissão.
var PapeisSuperusuario = []models.Role{models.RoleAdmin, models.RoleAnalista}

type Resolver struct {
	tabela Tabela
	bypass map[models.Role]bool
	Logger *slog.Logger
}

func NewResolver(tabela Tabela, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	bypass := make(map[models.Role]bool, len(PapeisSuperusuario))
	for _, r := range PapeisSuperusuario {
		bypass[r] = true
	}
	return &Resolver{tabela: tabela, bypass: bypass, Logger: logger}
}

// Permitido: basta uma das permissões; lista vazia libera qualquer autenticado.
func (s *Resolver) Permitido(u *models.Usuario, perms ...string) bool {
	if u == nil {
		return false
	}
	if s.bypass[u.Role] {
		return true
	}
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if s.tabela.Tem(u.Role, p) {
			return true
		}
	}
	return false
}

func (s *Resolver) Permissoes(u *models.Usuario) []string {
	if u == nil {
		return nil
	}
	if s.bypass[u.Role] {
		return Catalogo()
	}
	return s.tabela.Permissoes(u.Role)
}

// Requer protege a rota com as permissões informadas. Roda depois do
// autenticador; sem usuário no contexto a resposta é 401 auth_error.
func (s *Resolver) Requer(perms ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.autorizar(w, r, perms) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Resolver) autorizar(w http.ResponseWriter, r *http.Request, perms []string) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			s.Logger.Error("falha ao verificar permissões",
				"panic", fmt.Sprint(rec), "url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
			response.NaoAutenticado(w, auth.ErrAutenticacao.Message, auth.CodeAuthError)
			ok = false
		}
	}()

	u, found := auth.UsuarioDoContexto(r.Context())
	if !found {
		s.Logger.Warn("verificação de permissão sem usuário autenticado",
			"url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
		response.NaoAutenticado(w, auth.ErrAutenticacao.Message, auth.CodeAuthError)
		return false
	}

	if s.Permitido(u, perms...) {
		return true
	}

	s.Logger.Warn("acesso negado",
		"user_id", u.ID,
		"role", string(u.Role),
		"required", strings.Join(perms, ","),
		"route", rota(r),
		"url", r.URL.String(),
		"method", r.Method,
		"ip", response.ClientIP(r))
	response.Proibido(w, "Você não tem permissão para acessar este recurso")
	return false
}

func rota(r *http.Request) string {
	if cr := mux.CurrentRoute(r); cr != nil {
		if name := cr.GetName(); name != "" {
			return name
		}
		if tpl, err := cr.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// GET /api/me/permissoes
func (s *Resolver) MinhasPermissoes(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UsuarioDoContexto(r.Context())
	if !ok {
		response.NaoAutenticado(w, auth.ErrAutenticacao.Message, auth.CodeAuthError)
		return
	}
	response.Sucesso(w, http.StatusOK, map[string]any{
		"role":         u.Role,
		"permissoes":   s.Permissoes(u),
		"superusuario": s.bypass[u.Role],
	})
}
