package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/response"
)

const (
	HeaderNewToken       = "X-New-Token"
	HeaderTokenRefreshed = "X-Token-Refreshed"
	HeaderTokenWarning   = "X-Token-Warning"
	HeaderTokenExpiresIn = "X-Token-Expires-In"

	DefaultRefreshThreshold = 1800 * time.Second
)

type Renovador interface {
	LerSemExpiracao(raw string) (*Claims, error)
	Renovar(ctx context.Context, raw string) (string, *Claims, error)
}

// AutoRefresh renova tokens perto de expirar antes do handler rodar.
// Nenhuma falha interna sai daqui: ou a requisição segue, ou vira 401 JSON.
type AutoRefresh struct {
	Tokens Renovador
	Limite time.Duration
	Logger *slog.Logger
	now    func() time.Time
}

func NewAutoRefresh(tokens Renovador, limite time.Duration, logger *slog.Logger) *AutoRefresh {
	if limite <= 0 {
		limite = DefaultRefreshThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoRefresh{Tokens: tokens, Limite: limite, Logger: logger, now: time.Now}
}

// WithClock troca o relógio (testes).
func (a *AutoRefresh) WithClock(now func() time.Time) *AutoRefresh {
	a.now = now
	return a
}

func (a *AutoRefresh) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, seguir := a.processar(w, r)
		if !seguir {
			return
		}
		next.ServeHTTP(w, out)
	})
}

func (a *AutoRefresh) processar(w http.ResponseWriter, r *http.Request) (out *http.Request, seguir bool) {
	defer func() {
		if rec := recover(); rec != nil {
			a.Logger.Error("falha inesperada no auto refresh",
				"panic", fmt.Sprint(rec), "url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
			response.NaoAutenticado(w, ErrAutenticacao.Message, CodeAuthError)
			out, seguir = nil, false
		}
	}()

	raw, ok := TokenDoContexto(r.Context())
	if !ok {
		var err error
		if raw, err = ExtrairBearer(r); err != nil {
			// sem token não há o que renovar; o autenticador decide
			return r, true
		}
	}

	claims, ok := ClaimsDoContexto(r.Context())
	if !ok {
		var err error
		if claims, err = a.Tokens.LerSemExpiracao(raw); err != nil {
			e := comoErroAuth(err)
			a.Logger.Warn("auto refresh: token ilegível",
				"error_type", e.TextCode, "url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
			response.NaoAutenticado(w, e.Message, e.TextCode)
			return nil, false
		}
	}
	if claims.ExpiresAt == nil {
		response.NaoAutenticado(w, ErrTokenInvalido.Message, CodeTokenInvalid)
		return nil, false
	}

	timeLeft := claims.ExpiresAt.Time.Sub(a.now())

	switch {
	case timeLeft <= 0:
		// última chance: token já expirado
		novo, novoClaims, err := a.Tokens.Renovar(r.Context(), raw)
		if err != nil {
			a.Logger.Warn("auto refresh: token expirado e não renovável",
				"user_id", claims.UserID, "error", err.Error(),
				"url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
			response.NaoAutenticado(w, ErrTokenExpirado.Message, CodeTokenExpired)
			return nil, false
		}
		a.anexarNovoToken(w, novo, novoClaims)
		a.Logger.Info("auto refresh: token expirado renovado", "user_id", claims.UserID)
		return r.WithContext(ComToken(r.Context(), novoClaims, novo)), true

	case timeLeft < a.Limite:
		novo, novoClaims, err := a.Tokens.Renovar(r.Context(), raw)
		if err != nil {
			a.Logger.Warn("auto refresh: falha ao renovar, seguindo com token atual",
				"user_id", claims.UserID, "error", err.Error(), "time_left", int(timeLeft.Seconds()),
				"url", r.URL.String(), "method", r.Method, "ip", response.ClientIP(r))
			w.Header().Set(HeaderTokenWarning, "true")
			w.Header().Set(HeaderTokenExpiresIn, strconv.Itoa(int(timeLeft.Seconds())))
			return r, true
		}
		a.anexarNovoToken(w, novo, novoClaims)
		a.Logger.Info("auto refresh: token renovado", "user_id", claims.UserID, "time_left", int(timeLeft.Seconds()))
		return r.WithContext(ComToken(r.Context(), novoClaims, novo)), true
	}

	return r, true
}

func (a *AutoRefresh) anexarNovoToken(w http.ResponseWriter, novo string, claims *Claims) {
	h := w.Header()
	h.Set("Authorization", "Bearer "+novo)
	h.Set(HeaderNewToken, novo)
	h.Set(HeaderTokenRefreshed, "true")
	if claims != nil && claims.ExpiresAt != nil {
		h.Set(HeaderTokenExpiresIn, strconv.Itoa(int(claims.ExpiresAt.Time.Sub(a.now()).Seconds())))
	}
}

// ExposedHeaders lista os headers que o navegador precisa ler (CORS).
func ExposedHeaders() []string {
	return []string{"Authorization", HeaderNewToken, HeaderTokenRefreshed, HeaderTokenWarning, HeaderTokenExpiresIn}
}
