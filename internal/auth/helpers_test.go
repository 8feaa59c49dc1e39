package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/utils"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type relogio struct {
	mu  sync.Mutex
	now time.Time
}

func (c *relogio) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *relogio) Avancar(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	err     error
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: map[string]time.Time{}}
}

func (b *memBlacklist) Revogar(ctx context.Context, jti string, expiraEm, validoAte time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if atual, ok := b.entries[jti]; !ok || validoAte.Before(atual) {
		b.entries[jti] = validoAte
	}
	return nil
}

func (b *memBlacklist) Revogado(ctx context.Context, jti string, agora time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return false, b.err
	}
	ate, ok := b.entries[jti]
	return ok && !agora.Before(ate), nil
}

type fakeUsuarios struct {
	byID map[uint]*models.Usuario
	err  error
}

func (f *fakeUsuarios) BuscarPorID(ctx context.Context, id uint) (*models.Usuario, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("usuário não encontrado")
	}
	return u, nil
}

func (f *fakeUsuarios) BuscarPorEmail(ctx context.Context, email string) (*models.Usuario, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("usuário não encontrado")
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:         "segredo-de-teste-com-tamanho",
		TTL:            time.Hour,
		RefreshTTL:     14 * 24 * time.Hour,
		BlacklistGrace: 30 * time.Second,
		Issuer:         "api-controle-clube",
		Audience:       "controle-clube",
	}
}

type ambiente struct {
	clock     *relogio
	blacklist *memBlacklist
	tokens    *TokenService
	usuarios  *fakeUsuarios
	logger    *slog.Logger
}

func novoAmbiente(t *testing.T, cfg config.AuthConfig) *ambiente {
	t.Helper()
	keys, err := NewHMACKeySet([]byte(cfg.Secret))
	require.NoError(t, err)

	clock := &relogio{now: t0}
	bl := newMemBlacklist()
	hash, err := utils.HashSenha("senha-correta")
	require.NoError(t, err)

	return &ambiente{
		clock:     clock,
		blacklist: bl,
		tokens:    NewTokenService(keys, bl, cfg, WithClock(clock.Now)),
		usuarios: &fakeUsuarios{byID: map[uint]*models.Usuario{
			1: {ID: 1, Nome: "Ana", Email: "ana@kroma.com", Senha: hash, Role: models.RoleConsultor, IsActive: true},
			2: {ID: 2, Nome: "Bruno", Email: "bruno@kroma.com", Senha: hash, Role: models.RoleVendedor, IsActive: false},
		}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (a *ambiente) emitir(t *testing.T, id uint) (string, *Claims) {
	t.Helper()
	raw, claims, err := a.tokens.Emitir(a.usuarios.byID[id])
	require.NoError(t, err)
	return raw, claims
}
