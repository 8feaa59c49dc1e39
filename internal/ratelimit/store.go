// Package ratelimit limita requisições por identidade (usuário ou IP).
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store guarda os contadores. Leitura e incremento são operações separadas:
// sob concorrência o limite é aproximado.
type Store interface {
	// Tentativas devolve o contador vigente da chave (0 se expirou ou não existe).
	Tentativas(ctx context.Context, chave string, agora time.Time) (int, error)
	// Incrementar soma 1 e renova a expiração para agora+decay.
	Incrementar(ctx context.Context, chave string, decay time.Duration, agora time.Time) (int, error)
}

// NewStore escolhe o store pelo nome configurado (memory | database).
func NewStore(tipo string, db *gorm.DB) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(tipo)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "database":
		if db == nil {
			return nil, errors.New("RATE_LIMIT_STORE=database sem conexão com o banco")
		}
		return NewGormStore(db), nil
	default:
		return nil, errors.New("RATE_LIMIT_STORE desconhecido: " + tipo)
	}
}

type contador struct {
	valor    int
	expiraEm time.Time
}

type MemoryStore struct {
	mu    sync.Mutex
	byKey map[string]contador
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: map[string]contador{}}
}

func (m *MemoryStore) Tentativas(_ context.Context, chave string, agora time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byKey[chave]
	if !ok || !agora.Before(c.expiraEm) {
		return 0, nil
	}
	return c.valor, nil
}

func (m *MemoryStore) Incrementar(_ context.Context, chave string, decay time.Duration, agora time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byKey[chave]
	if !agora.Before(c.expiraEm) {
		c.valor = 0
	}
	c.valor++
	c.expiraEm = agora.Add(decay)
	m.byKey[chave] = c
	return c.valor, nil
}

// Limpar remove contadores expirados.
func (m *MemoryStore) Limpar(agora time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, c := range m.byKey {
		if !agora.Before(c.expiraEm) {
			delete(m.byKey, k)
			n++
		}
	}
	return n
}

// CacheContador é a linha de contador no banco, compartilhada entre instâncias.
type CacheContador struct {
	Chave    string    `gorm:"primaryKey;size:191"`
	Valor    int       `gorm:"not null;default:0"`
	ExpiraEm time.Time `gorm:"index;not null"`
}

func (CacheContador) TableName() string { return "cache_contadores" }

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Tentativas(ctx context.Context, chave string, agora time.Time) (int, error) {
	var c CacheContador
	err := s.DB.WithContext(ctx).Where("chave = ?", chave).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !agora.Before(c.ExpiraEm) {
		return 0, nil
	}
	return c.Valor, nil
}

func (s *GormStore) Incrementar(ctx context.Context, chave string, decay time.Duration, agora time.Time) (int, error) {
	atual, err := s.Tentativas(ctx, chave, agora)
	if err != nil {
		return 0, err
	}
	c := CacheContador{Chave: chave, Valor: atual + 1, ExpiraEm: agora.Add(decay)}
	err = s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chave"}},
			DoUpdates: clause.AssignmentColumns([]string{"valor", "expira_em"}),
		}).
		Create(&c).Error
	if err != nil {
		return 0, err
	}
	return c.Valor, nil
}

// Limpar apaga contadores expirados.
func (s *GormStore) Limpar(ctx context.Context, agora time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expira_em <= ?", agora).Delete(&CacheContador{})
	return res.RowsAffected, res.Error
}
