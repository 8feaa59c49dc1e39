package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *ambiente) autoRefresh() *AutoRefresh {
	return NewAutoRefresh(a.tokens, 1800*time.Second, a.logger).WithClock(a.clock.Now)
}

func requisicaoCom(raw string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/controle", nil)
	if raw != "" {
		r.Header.Set("Authorization", "Bearer "+raw)
	}
	return r
}

func TestAutoRefresh_PertoDeExpirarRenova(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	raw, _ := amb.emitir(t, 1)
	amb.clock.Avancar(50 * time.Minute)

	var tokenNoHandler string
	handler := amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenNoHandler, _ = TokenDoContexto(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requisicaoCom(raw))

	require.Equal(t, http.StatusOK, w.Code)
	novo := w.Header().Get(HeaderNewToken)
	require.NotEmpty(t, novo)
	assert.NotEqual(t, raw, novo)
	assert.Equal(t, "true", w.Header().Get(HeaderTokenRefreshed))
	assert.Equal(t, "Bearer "+novo, w.Header().Get("Authorization"))
	assert.Equal(t, "3600", w.Header().Get(HeaderTokenExpiresIn))
	assert.Equal(t, novo, tokenNoHandler)

	_, err := amb.tokens.Validar(context.Background(), novo)
	assert.NoError(t, err)
}

func TestAutoRefresh_LongeDeExpirarNaoMexe(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TTL = 2 * time.Hour
	amb := novoAmbiente(t, cfg)
	raw, _ := amb.emitir(t, 1)
	amb.clock.Avancar(time.Hour)

	w := httptest.NewRecorder()
	amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, requisicaoCom(raw))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderNewToken))
	assert.Empty(t, w.Header().Get(HeaderTokenRefreshed))
	assert.Empty(t, w.Header().Get(HeaderTokenWarning))
}

func TestAutoRefresh_ExpiradoUltimaChance(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	raw, _ := amb.emitir(t, 1)
	amb.clock.Avancar(2 * time.Hour)

	var rodou bool
	w := httptest.NewRecorder()
	amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rodou = true
	})).ServeHTTP(w, requisicaoCom(raw))

	assert.True(t, rodou)
	assert.Equal(t, "true", w.Header().Get(HeaderTokenRefreshed))
	assert.NotEmpty(t, w.Header().Get(HeaderNewToken))
}

func TestAutoRefresh_ExpiradoSemRenovacao(t *testing.T) {
	cfg := testAuthConfig()
	cfg.RefreshTTL = 90 * time.Minute
	amb := novoAmbiente(t, cfg)
	raw, _ := amb.emitir(t, 1)
	amb.clock.Avancar(2 * time.Hour)

	w := httptest.NewRecorder()
	amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria rodar")
	})).ServeHTTP(w, requisicaoCom(raw))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := lerCorpo(t, w)
	assert.Equal(t, CodeTokenExpired, body["error_type"])
	assert.Equal(t, true, body["requires_login"])
}

func TestAutoRefresh_FalhaAoRenovarSegueComAviso(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	raw, _ := amb.emitir(t, 1)
	amb.clock.Avancar(50 * time.Minute)
	amb.blacklist.err = errors.New("store indisponível")

	var rodou bool
	w := httptest.NewRecorder()
	amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rodou = true
	})).ServeHTTP(w, requisicaoCom(raw))

	assert.True(t, rodou)
	assert.Equal(t, "true", w.Header().Get(HeaderTokenWarning))
	assert.Equal(t, "600", w.Header().Get(HeaderTokenExpiresIn))
	assert.Empty(t, w.Header().Get(HeaderNewToken))
}

func TestAutoRefresh_SemTokenPassa(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	var rodou bool
	w := httptest.NewRecorder()
	amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rodou = true
	})).ServeHTTP(w, requisicaoCom(""))

	assert.True(t, rodou)
}

func TestAutoRefresh_TokenIlegivel(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	w := httptest.NewRecorder()
	amb.autoRefresh().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria rodar")
	})).ServeHTTP(w, requisicaoCom("nao-e-jwt"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeTokenInvalid, lerCorpo(t, w)["error_type"])
}

type renovadorQuePanica struct{ claims *Claims }

func (r renovadorQuePanica) LerSemExpiracao(string) (*Claims, error) { return r.claims, nil }

func (renovadorQuePanica) Renovar(context.Context, string) (string, *Claims, error) {
	panic("boom")
}

func TestAutoRefresh_PanicViraAuthError(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	raw, claims := amb.emitir(t, 1)
	amb.clock.Avancar(55 * time.Minute)

	ar := NewAutoRefresh(renovadorQuePanica{claims: claims}, 0, amb.logger).WithClock(amb.clock.Now)
	w := httptest.NewRecorder()
	ar.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria rodar")
	})).ServeHTTP(w, requisicaoCom(raw))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeAuthError, lerCorpo(t, w)["error_type"])
}

func TestAutoRefresh_DepoisDoAutenticadorUsaContexto(t *testing.T) {
	amb := novoAmbiente(t, testAuthConfig())
	raw, _ := amb.emitir(t, 1)
	amb.clock.Avancar(45 * time.Minute)

	var claimsNoHandler *Claims
	chain := amb.autenticador().Middleware(amb.autoRefresh().Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claimsNoHandler, _ = ClaimsDoContexto(r.Context())
			_, ok := UsuarioDoContexto(r.Context())
			assert.True(t, ok)
		})))
	w := httptest.NewRecorder()
	chain.ServeHTTP(w, requisicaoCom(raw))

	require.NotNil(t, claimsNoHandler)
	assert.Equal(t, "true", w.Header().Get(HeaderTokenRefreshed))
	assert.Equal(t, amb.clock.Now().Add(time.Hour).Unix(), claimsNoHandler.ExpiresAt.Unix())
}
