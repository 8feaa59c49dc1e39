package usuario

import (
	"context"
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
	"github.com/KromaEnergia/api-controle-clube/internal/utils"
	"github.com/KromaEnergia/api-controle-clube/internal/utils/db/dbtest"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// garante em tempo de compilação que o Store serve à autenticação
var _ auth.UsuarioRepository = (*Store)(nil)

type ambiente struct {
	db *gorm.DB
	h  *Handler
}

func novoAmbiente(t *testing.T) ambiente {
	t.Helper()
	db := dbtest.Open(t, &models.Usuario{}, &auditoria.Registro{})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ambiente{db: db, h: NewHandler(db, auditoria.NewServico(nil, log), response.NewErrorHandler(false, log))}
}

func (a ambiente) usuario(t *testing.T, nome string, role models.Role, gerente *uint) *models.Usuario {
	t.Helper()
	u := &models.Usuario{
		Nome:      nome,
		Email:     strings.ToLower(nome) + "@kroma.com.br",
		Senha:     "hash",
		Role:      role,
		GerenteID: gerente,
		IsActive:  true,
	}
	require.NoError(t, a.h.Repository.Salvar(a.db, u))
	return u
}

func chamar(h http.HandlerFunc, metodo, alvo, corpo string, id uint, ator *models.Usuario) *httptest.ResponseRecorder {
	var r *http.Request
	if corpo == "" {
		r = httptest.NewRequest(metodo, alvo, nil)
	} else {
		r = httptest.NewRequest(metodo, alvo, strings.NewReader(corpo))
	}
	if id != 0 {
		r = mux.SetURLVars(r, map[string]string{"id": strconv.FormatUint(uint64(id), 10)})
	}
	if ator != nil {
		r = r.WithContext(auth.ComUsuario(r.Context(), ator, &auth.Claims{UserID: ator.ID}, "tok"))
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func dados[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestStore(t *testing.T) {
	amb := novoAmbiente(t)
	u := amb.usuario(t, "Ana", models.RoleConsultor, nil)
	store := NewStore(amb.db)
	ctx := context.Background()

	achado, err := store.BuscarPorEmail(ctx, "  ANA@kroma.com.br ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, achado.ID)

	_, err = store.BuscarPorEmail(ctx, "ninguem@kroma.com.br")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))

	_, err = store.BuscarPorID(ctx, 999)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestSalvar_EmailDuplicado(t *testing.T) {
	amb := novoAmbiente(t)
	amb.usuario(t, "Ana", models.RoleConsultor, nil)
	err := amb.h.Repository.Salvar(amb.db, &models.Usuario{Nome: "Outra", Email: "ANA@kroma.com.br", Senha: "x", Role: models.RoleVendedor})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict))
}

func TestCriar_SenhaTemporaria(t *testing.T) {
	amb := novoAmbiente(t)
	admin := amb.usuario(t, "Admin", models.RoleAdmin, nil)

	w := chamar(amb.h.Criar, http.MethodPost, "/api/usuarios",
		`{"nome":"Bruno Lima","email":"Bruno@Kroma.com.br","role":"gerente"}`, 0, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), `"senha"`)

	criado := dados[CriadoResponse](t, w)
	assert.Len(t, criado.SenhaTemporaria, 12)
	assert.Equal(t, "bruno@kroma.com.br", criado.Usuario.Email)
	assert.True(t, criado.Usuario.IsActive)

	salvo, err := amb.h.Repository.BuscarPorID(amb.db, criado.Usuario.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckSenha(salvo.Senha, criado.SenhaTemporaria))

	var reg auditoria.Registro
	require.NoError(t, amb.db.Where("entidade = ?", "usuario").First(&reg).Error)
	assert.NotContains(t, string(reg.Depois), salvo.Senha)
}

func TestCriar_SenhaInformada(t *testing.T) {
	amb := novoAmbiente(t)
	admin := amb.usuario(t, "Admin", models.RoleAdmin, nil)

	w := chamar(amb.h.Criar, http.MethodPost, "/api/usuarios",
		`{"nome":"Carla","email":"carla@kroma.com.br","role":"consultor","senha":"segredo-forte"}`, 0, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	criado := dados[CriadoResponse](t, w)
	assert.Empty(t, criado.SenhaTemporaria)

	salvo, err := amb.h.Repository.BuscarPorID(amb.db, criado.Usuario.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckSenha(salvo.Senha, "segredo-forte"))
}

func TestCriar_Validacao(t *testing.T) {
	amb := novoAmbiente(t)
	admin := amb.usuario(t, "Admin", models.RoleAdmin, nil)

	w := chamar(amb.h.Criar, http.MethodPost, "/api/usuarios", `{"nome":"X","email":"sem-arroba","role":"chefe","senha":"123"}`, 0, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, campo := range []string{"nome", "email", "role", "senha"} {
		assert.Contains(t, body["errors"], campo)
	}

	amb.usuario(t, "Dup", models.RoleVendedor, nil)
	w = chamar(amb.h.Criar, http.MethodPost, "/api/usuarios", `{"nome":"Dup 2","email":"dup@kroma.com.br","role":"vendedor"}`, 0, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCriar_ConsultorSoCriaEquipe(t *testing.T) {
	amb := novoAmbiente(t)
	consultor := amb.usuario(t, "Consultor", models.RoleConsultor, nil)

	w := chamar(amb.h.Criar, http.MethodPost, "/api/usuarios", `{"nome":"Novo Admin","email":"novo@kroma.com.br","role":"admin"}`, 0, consultor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = chamar(amb.h.Criar, http.MethodPost, "/api/usuarios", `{"nome":"Vendedor Um","email":"v1@kroma.com.br","role":"vendedor","gerenteId":77}`, 0, consultor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	criado := dados[CriadoResponse](t, w)
	require.NotNil(t, criado.Usuario.GerenteID)
	assert.Equal(t, consultor.ID, *criado.Usuario.GerenteID)
}

func TestListar_Alcance(t *testing.T) {
	amb := novoAmbiente(t)
	admin := amb.usuario(t, "Admin", models.RoleAdmin, nil)
	gerente := amb.usuario(t, "Gerente", models.RoleGerente, nil)
	amb.usuario(t, "Equipe", models.RoleConsultor, &gerente.ID)
	amb.usuario(t, "Avulso", models.RoleConsultor, nil)

	todos := dados[response.Paginado[models.Usuario]](t, chamar(amb.h.Listar, http.MethodGet, "/api/usuarios", "", 0, admin))
	assert.EqualValues(t, 4, todos.Total)

	equipe := dados[response.Paginado[models.Usuario]](t, chamar(amb.h.Listar, http.MethodGet, "/api/usuarios", "", 0, gerente))
	assert.EqualValues(t, 2, equipe.Total)

	consultores := dados[response.Paginado[models.Usuario]](t, chamar(amb.h.Listar, http.MethodGet, "/api/usuarios?role=consultor", "", 0, admin))
	assert.EqualValues(t, 2, consultores.Total)
}

func TestBuscar_ForaDaEquipe(t *testing.T) {
	amb := novoAmbiente(t)
	gerente := amb.usuario(t, "Gerente", models.RoleGerente, nil)
	membro := amb.usuario(t, "Membro", models.RoleVendedor, &gerente.ID)
	avulso := amb.usuario(t, "Avulso", models.RoleVendedor, nil)

	assert.Equal(t, http.StatusOK, chamar(amb.h.Buscar, http.MethodGet, "/", "", membro.ID, gerente).Code)
	assert.Equal(t, http.StatusForbidden, chamar(amb.h.Buscar, http.MethodGet, "/", "", avulso.ID, gerente).Code)
	assert.Equal(t, http.StatusOK, chamar(amb.h.Buscar, http.MethodGet, "/", "", membro.ID, membro).Code)
	assert.Equal(t, http.StatusNotFound, chamar(amb.h.Buscar, http.MethodGet, "/", "", 999, gerente).Code)
	assert.Equal(t, http.StatusUnauthorized, chamar(amb.h.Buscar, http.MethodGet, "/", "", membro.ID, nil).Code)
}

func TestAtualizar(t *testing.T) {
	amb := novoAmbiente(t)
	admin := amb.usuario(t, "Admin", models.RoleAdmin, nil)
	consultor := amb.usuario(t, "Consultor", models.RoleConsultor, nil)

	w := chamar(amb.h.Atualizar, http.MethodPut, "/", `{"role":"admin"}`, consultor.ID, consultor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = chamar(amb.h.Atualizar, http.MethodPut, "/", `{"telefone":"31999990000"}`, consultor.ID, consultor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "31999990000", dados[models.Usuario](t, w).Telefone)

	w = chamar(amb.h.Atualizar, http.MethodPut, "/", `{"role":"gerente"}`, consultor.ID, admin)
	require.Equal(t, http.StatusOK, w.Code)
	salvo, err := amb.h.Repository.BuscarPorID(amb.db, consultor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGerente, salvo.Role)
	assert.Equal(t, "hash", salvo.Senha)

	w = chamar(amb.h.Atualizar, http.MethodPut, "/", `{"role":"imperador"}`, consultor.ID, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDesativar(t *testing.T) {
	amb := novoAmbiente(t)
	admin := amb.usuario(t, "Admin", models.RoleAdmin, nil)
	alvo := amb.usuario(t, "Alvo", models.RoleVendedor, nil)

	assert.Equal(t, http.StatusConflict, chamar(amb.h.Desativar, http.MethodDelete, "/", "", admin.ID, admin).Code)

	w := chamar(amb.h.Desativar, http.MethodDelete, "/", "", alvo.ID, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Usuário desativado"`)

	// continua no banco, só inativo
	u, err := NewStore(amb.db).BuscarPorID(context.Background(), alvo.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	var reg auditoria.Registro
	require.NoError(t, amb.db.Where("evento_tipo = ?", "desativacao").First(&reg).Error)
	assert.Equal(t, alvo.ID, reg.EntidadeID)
}

func TestRedefinirSenha(t *testing.T) {
	amb := novoAmbiente(t)
	gerente := amb.usuario(t, "Gerente", models.RoleGerente, nil)
	membro := amb.usuario(t, "Membro", models.RoleVendedor, &gerente.ID)
	avulso := amb.usuario(t, "Avulso", models.RoleVendedor, nil)

	assert.Equal(t, http.StatusForbidden, chamar(amb.h.RedefinirSenha, http.MethodPost, "/", "", avulso.ID, gerente).Code)

	w := chamar(amb.h.RedefinirSenha, http.MethodPost, "/", "", membro.ID, gerente)
	require.Equal(t, http.StatusOK, w.Code)
	nova := dados[CriadoResponse](t, w).SenhaTemporaria
	require.Len(t, nova, 12)

	salvo, err := amb.h.Repository.BuscarPorID(amb.db, membro.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckSenha(salvo.Senha, nova))
}
