package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpo(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var b map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestClassificar(t *testing.T) {
	casos := []struct {
		nome   string
		err    error
		status int
		tipo   string
	}{
		{"validacao", apperrors.Validation("x"), http.StatusUnprocessableEntity, "validation_error"},
		{"nao encontrado", apperrors.NotFound("x"), http.StatusNotFound, "not_found"},
		{"conflito", apperrors.Conflict("x"), http.StatusConflict, "conflict"},
		{"auth com codigo", apperrors.New("x", apperrors.CategoryAuth).WithTextCode("token_expired"), http.StatusUnauthorized, "token_expired"},
		{"banco", apperrors.Database(errors.New("boom"), "x"), http.StatusInternalServerError, "database_error"},
		{"heuristica sql", errors.New("sql: no rows"), http.StatusInternalServerError, "database_error"},
		{"heuristica upload", errors.New("upload interrompido"), http.StatusInternalServerError, "upload_error"},
		{"generico", errors.New("boom"), http.StatusInternalServerError, "server_error"},
	}
	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			status, tipo := Classificar(c.err)
			assert.Equal(t, c.status, status)
			assert.Equal(t, c.tipo, tipo)
		})
	}
}

func TestHandle(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := httptest.NewRequest(http.MethodGet, "/api/x", nil)

	t.Run("validacao com campos", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewErrorHandler(false, log).Handle(w, r, apperrors.Validation("dados inválidos").WithFields(map[string]string{"nome": "obrigatório"}))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		b := corpo(t, w)
		assert.Equal(t, false, b["success"])
		assert.Equal(t, "dados inválidos", b["message"])
		assert.Equal(t, map[string]any{"nome": "obrigatório"}, b["errors"])
		assert.NotContains(t, b, "debug_info")
	})

	t.Run("banco esconde mensagem e mostra debug", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewErrorHandler(true, log).Handle(w, r, apperrors.Database(errors.New("conn refused"), "falha ao salvar"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		b := corpo(t, w)
		assert.Equal(t, "Erro interno do servidor", b["message"])
		require.Contains(t, b, "debug_info")
		assert.Equal(t, "/api/x", b["debug_info"].(map[string]any)["path"])
	})
}

func TestRecuperar(t *testing.T) {
	h := NewErrorHandler(false, slog.New(slog.NewTextHandler(io.Discard, nil))).Recuperar(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("quebrou") }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server_error", corpo(t, w)["error_type"])
}

func TestClientIP_SemProxyIgnoraHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.RemoteAddr = "[::1]:5555"
	assert.Equal(t, "::1", ClientIP(r))

	// headers de encaminhamento vindos direto do cliente não valem
	r.Header.Set("X-Real-IP", "172.16.0.9")
	r.Header.Set("X-Forwarded-For", "200.1.2.3")
	assert.Equal(t, "::1", ClientIP(r))
}

func TestClientIP_ProxyConfiavel(t *testing.T) {
	p, err := NovosProxies([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.1.1:443"
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 200.1.2.3, 10.9.9.9")
	// da direita para a esquerda, o primeiro que não é proxy
	assert.Equal(t, "200.1.2.3", p.ClientIP(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", p.ClientIP(r))

	r.RemoteAddr = "203.0.113.9:1234"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.9", p.ClientIP(r))

	ConfiarEm(p)
	t.Cleanup(func() { ConfiarEm(nil) })
	r.RemoteAddr = "127.0.0.1:80"
	assert.Equal(t, "1.2.3.4", ClientIP(r))

	_, err = NovosProxies([]string{"não-é-ip"})
	assert.Error(t, err)
}

func TestPagina(t *testing.T) {
	p, pp := Pagina(httptest.NewRequest(http.MethodGet, "/?page=3&per_page=500", nil))
	assert.Equal(t, 3, p)
	assert.Equal(t, 100, pp)
	assert.Equal(t, 200, Offset(p, pp))

	p, pp = Pagina(httptest.NewRequest(http.MethodGet, "/?page=-1", nil))
	assert.Equal(t, 1, p)
	assert.Equal(t, 20, pp)
}

func TestIDEDecodificar(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "42"})
	id, err := ID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ID(mux.SetURLVars(r, map[string]string{"id": "0"}), "id")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	var dst struct{ Nome string }
	err = Decodificar(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{quebrado")), &dst)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestSucesso(t *testing.T) {
	w := httptest.NewRecorder()
	Sucesso(w, http.StatusCreated, map[string]int{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Criado com sucesso","data":{"id":1}}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestEnvelopeSempreTemMensagem(t *testing.T) {
	w := httptest.NewRecorder()
	Sucesso(w, http.StatusOK, map[string]int{"x": 1})
	b := corpo(t, w)
	assert.Equal(t, true, b["success"])
	assert.Equal(t, "OK", b["message"])

	w = httptest.NewRecorder()
	Mensagem(w, http.StatusOK, "ok")
	assert.JSONEq(t, `{"success":true,"message":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	Sucesso(w, http.StatusOK, Paginado[string]{Itens: []string{"a"}, Total: 1, Pagina: 1, PorPagina: 20})
	b = corpo(t, w)
	assert.Contains(t, b, "message")
	assert.EqualValues(t, 1, b["data"].(map[string]any)["total"])

	w = httptest.NewRecorder()
	SucessoComMensagem(w, http.StatusOK, "Usuário desativado", struct{}{})
	assert.Equal(t, "Usuário desativado", corpo(t, w)["message"])
}
