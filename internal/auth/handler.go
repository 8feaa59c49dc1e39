package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/KromaEnergia/api-controle-clube/internal/utils"
)

type UsuarioRepository interface {
	UsuarioFinder
	BuscarPorEmail(ctx context.Context, email string) (*models.Usuario, error)
}

// Handler expõe login, refresh, logout e me.
type Handler struct {
	Tokens   *TokenService
	Usuarios UsuarioRepository
	Logger   *slog.Logger
}

func NewHandler(tokens *TokenService, usuarios UsuarioRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Tokens: tokens, Usuarios: usuarios, Logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	Usuario     *models.Usuario `json:"usuario,omitempty"`
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Falha(w, http.StatusBadRequest, "payload inválido", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		response.Falha(w, http.StatusBadRequest, "email e senha são obrigatórios", nil)
		return
	}

	u, err := h.Usuarios.BuscarPorEmail(r.Context(), email)
	if err != nil || !utils.CheckSenha(u.Senha, req.Password) {
		if err != nil && !apperrors.IsCategory(err, apperrors.CategoryNotFound) {
			h.Logger.Error("login: falha ao buscar usuário", "error", err.Error(), "ip", response.ClientIP(r))
		}
		h.Logger.Warn("login recusado", "email", email, "ip", response.ClientIP(r))
		response.NaoAutenticado(w, ErrCredenciaisInvalidas.Message, CodeAuthError)
		return
	}
	if !u.IsActive {
		h.Logger.Warn("login de usuário inativo", "user_id", u.ID, "ip", response.ClientIP(r))
		response.NaoAutenticado(w, ErrUsuarioInativo.Message, CodeUserInactive)
		return
	}

	token, _, err := h.Tokens.Emitir(u)
	if err != nil {
		h.Logger.Error("login: erro ao gerar token", "user_id", u.ID, "error", err.Error())
		response.Falha(w, http.StatusInternalServerError, "erro ao gerar token", response.Body{"error_type": "server_error"})
		return
	}

	h.Logger.Info("login efetuado", "user_id", u.ID, "ip", response.ClientIP(r))
	response.Sucesso(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.Tokens.TTL().Seconds()),
		Usuario:     u,
	})
}

// POST /auth/refresh
// Fica fora do autenticador: o token pode já ter expirado.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, err := ExtrairBearer(r)
	if err != nil {
		e := comoErroAuth(err)
		response.NaoAutenticado(w, e.Message, e.TextCode)
		return
	}

	novo, claims, err := h.Tokens.Renovar(r.Context(), raw)
	if err != nil {
		e := comoErroAuth(err)
		h.Logger.Warn("refresh recusado", "error_type", e.TextCode, "ip", response.ClientIP(r))
		response.NaoAutenticado(w, e.Message, e.TextCode)
		return
	}

	u, err := h.Usuarios.BuscarPorID(r.Context(), claims.UserID)
	if err != nil || !u.IsActive {
		_ = h.Tokens.Revogar(r.Context(), claims)
		response.NaoAutenticado(w, ErrUsuarioInativo.Message, CodeUserInactive)
		return
	}

	response.Sucesso(w, http.StatusOK, TokenResponse{
		AccessToken: novo,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.Tokens.TTL().Seconds()),
	})
}

// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsDoContexto(r.Context())
	if !ok {
		response.NaoAutenticado(w, ErrAutenticacao.Message, CodeAuthError)
		return
	}
	if err := h.Tokens.Revogar(r.Context(), claims); err != nil {
		h.Logger.Error("logout: falha ao revogar token", "user_id", claims.UserID, "error", err.Error())
		response.Falha(w, http.StatusInternalServerError, "erro ao encerrar sessão", response.Body{"error_type": "server_error"})
		return
	}
	h.Logger.Info("logout", "user_id", claims.UserID)
	response.Mensagem(w, http.StatusOK, "Logout realizado com sucesso")
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UsuarioDoContexto(r.Context())
	if !ok {
		response.NaoAutenticado(w, ErrAutenticacao.Message, CodeAuthError)
		return
	}
	response.Sucesso(w, http.StatusOK, u)
}
