package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
)

type TokenValidator interface {
	Validar(ctx context.Context, raw string) (*Claims, error)
}

type UsuarioFinder interface {
	BuscarPorID(ctx context.Context, id uint) (*models.Usuario, error)
}

// Autenticador valida o bearer token e resolve o usuário de cada requisição.
type Autenticador struct {
	Tokens   TokenValidator
	Usuarios UsuarioFinder
	Logger   *slog.Logger
}

func NewAutenticador(tokens TokenValidator, usuarios UsuarioFinder, logger *slog.Logger) *Autenticador {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autenticador{Tokens: tokens, Usuarios: usuarios, Logger: logger}
}

// ExtrairBearer lê o token do header Authorization.
func ExtrairBearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return "", ErrTokenAusente
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	if raw == "" {
		return "", ErrTokenVazio
	}
	return raw, nil
}

func (a *Autenticador) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := ExtrairBearer(r)
		if err != nil {
			a.rejeitar(w, r, err, 0)
			return
		}

		claims, err := a.Tokens.Validar(r.Context(), raw)
		if err != nil {
			a.rejeitar(w, r, err, 0)
			return
		}

		u, err := a.Usuarios.BuscarPorID(r.Context(), claims.UserID)
		if err != nil {
			if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
				a.rejeitar(w, r, ErrUsuarioNaoEncontrado, claims.UserID)
				return
			}
			a.Logger.Error("falha ao carregar usuário do token",
				"user_id", claims.UserID, "error", err.Error(),
				"url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
			response.Falha(w, http.StatusInternalServerError, "Erro ao carregar usuário", response.Body{"error_type": "server_error"})
			return
		}

		// desativação vale na hora, mesmo com token válido
		if !u.IsActive {
			a.rejeitar(w, r, ErrUsuarioInativo, u.ID)
			return
		}

		a.Logger.Info("usuário autenticado",
			"user_id", u.ID, "role", string(u.Role),
			"url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))

		next.ServeHTTP(w, r.WithContext(ComUsuario(r.Context(), u, claims, raw)))
	})
}

func (a *Autenticador) rejeitar(w http.ResponseWriter, r *http.Request, err error, userID uint) {
	e := comoErroAuth(err)
	attrs := []any{
		"error_type", e.TextCode,
		"url", r.URL.String(),
		"method", r.Method,
		"ip", response.ClientIP(r),
	}
	if userID != 0 {
		attrs = append(attrs, "user_id", userID)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err.Error())
	}
	a.Logger.Warn("autenticação recusada", attrs...)
	response.NaoAutenticado(w, e.Message, e.TextCode)
}
