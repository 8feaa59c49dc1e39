package configuracao

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/notificacao"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/KromaEnergia/api-controle-clube/internal/utils/db/dbtest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func abrir(t *testing.T) *gorm.DB {
	return dbtest.Open(t, &Configuracao{}, &auditoria.Registro{})
}

func TestValidate_ValorCompativelComTipo(t *testing.T) {
	casos := []struct {
		tipo  Tipo
		valor string
		ok    bool
	}{
		{TipoNumber, "12.5", true},
		{TipoNumber, "doze", false},
		{TipoBoolean, "true", true},
		{TipoBoolean, "sim", false},
		{TipoJSON, `{"a":1}`, true},
		{TipoJSON, `{a:1}`, false},
		{TipoString, "qualquer", true},
		{Tipo("data"), "2026-01-01", false},
	}
	for _, c := range casos {
		err := Configuracao{Chave: "k", Tipo: c.tipo, Valor: c.valor}.Validate()
		if c.ok {
			assert.NoError(t, err, "%s=%s", c.tipo, c.valor)
		} else {
			assert.Error(t, err, "%s=%s", c.tipo, c.valor)
		}
	}
}

func TestSalvar_RejeitaValorInvalido(t *testing.T) {
	db := abrir(t)
	err := NewRepository().Salvar(db, &Configuracao{Chave: "calibragem_global", Tipo: TipoNumber, Valor: "abc"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestSalvar_ChaveDuplicada(t *testing.T) {
	db := abrir(t)
	repo := NewRepository()
	require.NoError(t, repo.Salvar(db, &Configuracao{Chave: "x", Tipo: TipoString, Valor: "1"}))
	err := repo.Salvar(db, &Configuracao{Chave: "x", Tipo: TipoString, Valor: "2"})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict))
}

func TestServico_GettersTipados(t *testing.T) {
	db := abrir(t)
	repo := NewRepository()
	require.NoError(t, repo.Salvar(db, &Configuracao{Chave: ChaveCalibragemGlobal, Tipo: TipoNumber, Valor: "12.5"}))
	require.NoError(t, repo.Salvar(db, &Configuracao{Chave: "snapshot_ativo", Tipo: TipoBoolean, Valor: "true"}))
	require.NoError(t, repo.Salvar(db, &Configuracao{Chave: "distribuidoras", Tipo: TipoJSON, Valor: `["CEMIG","ENEL"]`}))
	require.NoError(t, repo.Salvar(db, &Configuracao{Chave: "empresa", Tipo: TipoString, Valor: "Kroma"}))

	s := NewServico(db)
	ctx := context.Background()

	n, err := s.Numero(ctx, ChaveCalibragemGlobal, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, n.Equal(decimal.RequireFromString("12.5")))

	n, err = s.Numero(ctx, "nao_existe", decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.True(t, n.Equal(decimal.NewFromInt(7)))

	b, err := s.Booleano(ctx, "snapshot_ativo", false)
	require.NoError(t, err)
	assert.True(t, b)

	var lista []string
	achou, err := s.JSON(ctx, "distribuidoras", &lista)
	require.NoError(t, err)
	assert.True(t, achou)
	assert.Equal(t, []string{"CEMIG", "ENEL"}, lista)

	txt, err := s.Texto(ctx, "empresa", "")
	require.NoError(t, err)
	assert.Equal(t, "Kroma", txt)

	_, err = s.Numero(ctx, "empresa", decimal.Zero)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func novoHandler(db *gorm.DB) *Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(db, auditoria.NewServico(nil, log), response.NewErrorHandler(false, log))
}

func put(h *Handler, chave, corpo string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPut, "/api/configuracoes/"+chave, strings.NewReader(corpo))
	r = mux.SetURLVars(r, map[string]string{"chave": chave})
	w := httptest.NewRecorder()
	h.Atualizar(w, r)
	return w
}

func TestHandler_AtualizarCriaEAudita(t *testing.T) {
	db := abrir(t)
	h := novoHandler(db)

	w := put(h, ChaveCalibragemGlobal, `{"valor":"10","tipo":"number","grupo":"controle"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = put(h, ChaveCalibragemGlobal, `{"valor":"15"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var c Configuracao
	require.NoError(t, db.Where("chave = ?", ChaveCalibragemGlobal).First(&c).Error)
	assert.Equal(t, "15", c.Valor)
	assert.Equal(t, "controle", c.Grupo)

	var regs []auditoria.Registro
	require.NoError(t, db.Order("id").Find(&regs).Error)
	require.Len(t, regs, 2)
	assert.Equal(t, auditoria.AcaoCriar, regs[0].Acao)
	assert.Equal(t, auditoria.AcaoAtualizar, regs[1].Acao)
	assert.True(t, regs[1].Critico)
	assert.Contains(t, string(regs[1].Antes), `"valor":"10"`)
}

func TestHandler_AtualizarValidacao(t *testing.T) {
	db := abrir(t)
	h := novoHandler(db)

	w := put(h, "nova", `{"valor":"1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = put(h, "limite", `{"valor":"muito","tipo":"number"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body["error_type"])
	assert.Contains(t, body["errors"], "valor")

	var n int64
	db.Model(&auditoria.Registro{}).Count(&n)
	assert.Zero(t, n)
}

func TestHandler_ChaveCriticaAlertaAposGravar(t *testing.T) {
	var recebidos atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recebidos.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	db := abrir(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(db, auditoria.NewServico(notificacao.NewWebhook(srv.URL, log), log), response.NewErrorHandler(false, log))

	w := put(h, ChaveCalibragemGlobal, `{"valor":"abc","tipo":"number"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, recebidos.Load())

	w = put(h, ChaveCalibragemGlobal, `{"valor":"12","tipo":"number"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, recebidos.Load())

	var regs []auditoria.Registro
	require.NoError(t, db.Find(&regs).Error)
	require.Len(t, regs, 1)
	assert.True(t, regs[0].Critico)
}
