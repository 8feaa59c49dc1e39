package unidade

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/KromaEnergia/api-controle-clube/internal/utils/db/dbtest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func usina(numero string) *UnidadeConsumidora {
	return &UnidadeConsumidora{
		NumeroUnidade:   numero,
		Gerador:         true,
		NomeUsina:       str("Usina Sol Norte"),
		PotenciaCC:      dec("10"),
		FatorCapacidade: dec("30"),
	}
}

func TestCalcularCapacidade(t *testing.T) {
	assert.True(t, CalcularCapacidade(decimal.NewFromInt(10), decimal.NewFromInt(30)).Equal(decimal.NewFromInt(2160)))
	// 720 x 100 x 30% = 21600; o exemplo antigo de 2160 para (100, 30) não fecha com
	// a fórmula, e a fórmula prevalece
	assert.True(t, CalcularCapacidade(decimal.NewFromInt(100), decimal.NewFromInt(30)).Equal(decimal.NewFromInt(21600)))
	assert.True(t, CalcularCapacidade(*dec("75.5"), *dec("18.25")).Equal(decimal.RequireFromString("9920.7")))
}

func TestValidate_GeradorSemNomeUsina(t *testing.T) {
	u := usina("3001")
	u.NomeUsina = nil
	err := apperrors.DeValidacao(u.Validate())
	require.Error(t, err)
	e, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "nomeUsina")

	u.NomeUsina = str("   ")
	assert.Error(t, u.Validate())
}

func TestValidate_GeradorSemSpecs(t *testing.T) {
	u := &UnidadeConsumidora{NumeroUnidade: "1", Gerador: true, NomeUsina: str("X")}
	e, ok := apperrors.As(apperrors.DeValidacao(u.Validate()))
	require.True(t, ok)
	assert.Contains(t, e.Fields, "potenciaCc")
	assert.Contains(t, e.Fields, "fatorCapacidade")

	u.PotenciaCC = dec("-1")
	u.FatorCapacidade = dec("120")
	e, ok = apperrors.As(apperrors.DeValidacao(u.Validate()))
	require.True(t, ok)
	assert.Contains(t, e.Fields, "potenciaCc")
	assert.Contains(t, e.Fields, "fatorCapacidade")
}

func TestValidate_NaoGeradorSemCapacidade(t *testing.T) {
	u := &UnidadeConsumidora{NumeroUnidade: "1", Capacidade: dec("100")}
	e, ok := apperrors.As(apperrors.DeValidacao(u.Validate()))
	require.True(t, ok)
	assert.Contains(t, e.Fields, "capacidade")

	u.Capacidade = nil
	assert.NoError(t, u.Validate())
}

func TestSalvar_CalculaCapacidade(t *testing.T) {
	db := dbtest.Open(t, &UnidadeConsumidora{})
	repo := NewRepository()

	u := usina("3001")
	require.NoError(t, repo.Salvar(db, u))

	salvo, err := repo.BuscarPorID(db, u.ID)
	require.NoError(t, err)
	require.NotNil(t, salvo.Capacidade)
	assert.True(t, salvo.Capacidade.Equal(decimal.NewFromInt(2160)), salvo.Capacidade.String())

	salvo.PotenciaCC = dec("100")
	require.NoError(t, repo.Salvar(db, salvo))
	salvo, err = repo.BuscarPorID(db, u.ID)
	require.NoError(t, err)
	assert.True(t, salvo.Capacidade.Equal(decimal.NewFromInt(21600)))
}

func TestSalvar_GeradorInvalidoNaoGrava(t *testing.T) {
	db := dbtest.Open(t, &UnidadeConsumidora{})
	u := usina("3001")
	u.NomeUsina = nil
	err := NewRepository().Salvar(db, u)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	var n int64
	db.Model(&UnidadeConsumidora{}).Count(&n)
	assert.Zero(t, n)
}

func TestNumeroUnicoEntreAtivas(t *testing.T) {
	db := dbtest.Open(t, &UnidadeConsumidora{})
	repo := NewRepository()

	primeira := &UnidadeConsumidora{NumeroUnidade: "555"}
	require.NoError(t, repo.Salvar(db, primeira))

	err := repo.Salvar(db, &UnidadeConsumidora{NumeroUnidade: "555"})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict))

	// removida não bloqueia o número
	require.NoError(t, db.Delete(primeira).Error)
	require.NoError(t, repo.Salvar(db, &UnidadeConsumidora{NumeroUnidade: "555"}))
}

func TestConverterEmUG(t *testing.T) {
	u := &UnidadeConsumidora{NumeroUnidade: "10"}
	require.NoError(t, u.ConverterEmUG("Usina Leste", dec("50"), nil, decimal.NewFromInt(20)))
	assert.True(t, u.Gerador)
	assert.True(t, u.Capacidade.Equal(decimal.NewFromInt(7200)))

	assert.True(t, apperrors.IsCategory(u.ConverterEmUG("de novo", dec("1"), nil, decimal.NewFromInt(1)), apperrors.CategoryConflict))

	sem := &UnidadeConsumidora{NumeroUnidade: "11"}
	assert.Error(t, sem.ConverterEmUG("", dec("50"), nil, decimal.NewFromInt(20)))
}

type ambiente struct {
	db *gorm.DB
	h  *Handler
}

func novoAmbiente(t *testing.T) ambiente {
	db := dbtest.Open(t, &UnidadeConsumidora{}, &auditoria.Registro{})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ambiente{db: db, h: NewHandler(db, auditoria.NewServico(nil, log), response.NewErrorHandler(false, log))}
}

func comUsuario(r *http.Request, u *models.Usuario) *http.Request {
	return r.WithContext(auth.ComUsuario(r.Context(), u, &auth.Claims{UserID: u.ID}, "tok"))
}

func TestHandler_ConverterUG(t *testing.T) {
	amb := novoAmbiente(t)
	u := &UnidadeConsumidora{NumeroUnidade: "900"}
	require.NoError(t, amb.h.Repository.Salvar(amb.db, u))

	corpo := `{"nomeUsina":"Usina Oeste","potenciaCc":100,"fatorCapacidade":30}`
	r := httptest.NewRequest(http.MethodPost, "/api/unidades/1/converter-ug", strings.NewReader(corpo))
	r = mux.SetURLVars(r, map[string]string{"id": "1"})
	r = comUsuario(r, &models.Usuario{ID: 1, Role: models.RoleAdmin})
	w := httptest.NewRecorder()
	amb.h.ConverterUG(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	salvo, err := amb.h.Repository.BuscarPorID(amb.db, u.ID)
	require.NoError(t, err)
	assert.True(t, salvo.Gerador)
	assert.True(t, salvo.Capacidade.Equal(decimal.NewFromInt(21600)))

	var regs []auditoria.Registro
	require.NoError(t, amb.db.Find(&regs).Error)
	require.Len(t, regs, 1)
	assert.Equal(t, "conversao_ug", regs[0].EventoTipo)
}

func TestHandler_AtualizarGeradorInvalido(t *testing.T) {
	amb := novoAmbiente(t)
	u := &UnidadeConsumidora{NumeroUnidade: "901"}
	require.NoError(t, amb.h.Repository.Salvar(amb.db, u))

	r := httptest.NewRequest(http.MethodPut, "/api/unidades/1", strings.NewReader(`{"gerador":true}`))
	r = mux.SetURLVars(r, map[string]string{"id": "1"})
	r = comUsuario(r, &models.Usuario{ID: 1, Role: models.RoleAdmin})
	w := httptest.NewRecorder()
	amb.h.Atualizar(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["errors"], "nomeUsina")
}

func TestHandler_ListarRestringeConsultor(t *testing.T) {
	amb := novoAmbiente(t)
	dono, outro := uint(5), uint(6)
	require.NoError(t, amb.h.Repository.Salvar(amb.db, &UnidadeConsumidora{NumeroUnidade: "a", ConsultorID: &dono}))
	require.NoError(t, amb.h.Repository.Salvar(amb.db, &UnidadeConsumidora{NumeroUnidade: "b", ConsultorID: &outro}))
	require.NoError(t, amb.h.Repository.Salvar(amb.db, usina("c")))

	listar := func(u *models.Usuario, query string) response.Paginado[UnidadeConsumidora] {
		r := comUsuario(httptest.NewRequest(http.MethodGet, "/api/unidades"+query, nil), u)
		w := httptest.NewRecorder()
		amb.h.Listar(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data response.Paginado[UnidadeConsumidora] `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Data
	}

	consultor := &models.Usuario{ID: dono, Role: models.RoleConsultor}
	assert.EqualValues(t, 1, listar(consultor, "").Total)
	assert.EqualValues(t, 1, listar(consultor, "?gerador=true").Total)
	assert.EqualValues(t, 3, listar(&models.Usuario{ID: 1, Role: models.RoleGerente}, "").Total)
}

func TestHandler_AcessoPorDono(t *testing.T) {
	amb := novoAmbiente(t)
	dono := uint(6)
	uc := &UnidadeConsumidora{NumeroUnidade: "910", ConsultorID: &dono}
	require.NoError(t, amb.h.Repository.Salvar(amb.db, uc))
	ug := usina("911")
	ug.ConsultorID = &dono
	require.NoError(t, amb.h.Repository.Salvar(amb.db, ug))

	chamar := func(u *models.Usuario, metodo string, id uint, corpo string, fn http.HandlerFunc) *httptest.ResponseRecorder {
		r := httptest.NewRequest(metodo, "/api/unidades/x", strings.NewReader(corpo))
		r = mux.SetURLVars(r, map[string]string{"id": strconv.FormatUint(uint64(id), 10)})
		if u != nil {
			r = comUsuario(r, u)
		}
		w := httptest.NewRecorder()
		fn(w, r)
		return w
	}

	intruso := &models.Usuario{ID: 5, Role: models.RoleConsultor}
	converter := `{"nomeUsina":"Usina Leste","potenciaCc":10,"fatorCapacidade":30}`
	assert.Equal(t, http.StatusForbidden, chamar(intruso, http.MethodGet, uc.ID, "", amb.h.Buscar).Code)
	assert.Equal(t, http.StatusForbidden, chamar(intruso, http.MethodPut, uc.ID, `{"apelido":"x"}`, amb.h.Atualizar).Code)
	assert.Equal(t, http.StatusForbidden, chamar(intruso, http.MethodPost, uc.ID, converter, amb.h.ConverterUG).Code)
	assert.Equal(t, http.StatusForbidden, chamar(nil, http.MethodGet, uc.ID, "", amb.h.Buscar).Code)

	// UGs de outro consultor podem ser lidas, não alteradas
	assert.Equal(t, http.StatusOK, chamar(intruso, http.MethodGet, ug.ID, "", amb.h.Buscar).Code)
	assert.Equal(t, http.StatusForbidden, chamar(intruso, http.MethodPut, ug.ID, `{"apelido":"x"}`, amb.h.Atualizar).Code)

	intacta, err := amb.h.Repository.BuscarPorID(amb.db, uc.ID)
	require.NoError(t, err)
	assert.False(t, intacta.Gerador)
	var regs []auditoria.Registro
	require.NoError(t, amb.db.Find(&regs).Error)
	assert.Empty(t, regs)

	proprio := &models.Usuario{ID: dono, Role: models.RoleConsultor}
	assert.Equal(t, http.StatusOK, chamar(proprio, http.MethodGet, uc.ID, "", amb.h.Buscar).Code)
	w := chamar(proprio, http.MethodPost, uc.ID, converter, amb.h.ConverterUG)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	gerente := &models.Usuario{ID: 1, Role: models.RoleGerente}
	w = chamar(gerente, http.MethodPut, ug.ID, `{"apelido":"Usina compartilhada"}`, amb.h.Atualizar)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
