package configuracao

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Leitor expõe leitura tipada das configurações. Chave ausente devolve o padrão.
type Leitor interface {
	Texto(ctx context.Context, chave, padrao string) (string, error)
	Numero(ctx context.Context, chave string, padrao decimal.Decimal) (decimal.Decimal, error)
	Booleano(ctx context.Context, chave string, padrao bool) (bool, error)
	JSON(ctx context.Context, chave string, dst any) (bool, error)
}

type Servico struct {
	DB         *gorm.DB
	Repository Repository
}

func NewServico(db *gorm.DB) *Servico {
	return &Servico{DB: db, Repository: NewRepository()}
}

func (s *Servico) buscar(ctx context.Context, chave string) (*Configuracao, bool, error) {
	c, err := s.Repository.BuscarPorChave(s.DB.WithContext(ctx), chave)
	if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *Servico) Texto(ctx context.Context, chave, padrao string) (string, error) {
	c, ok, err := s.buscar(ctx, chave)
	if err != nil || !ok {
		return padrao, err
	}
	return c.Valor, nil
}

func (s *Servico) Numero(ctx context.Context, chave string, padrao decimal.Decimal) (decimal.Decimal, error) {
	c, ok, err := s.buscar(ctx, chave)
	if err != nil || !ok {
		return padrao, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.Valor))
	if err != nil {
		return padrao, apperrors.Validation("configuração " + chave + " não é numérica").Wrapping(err)
	}
	return d, nil
}

func (s *Servico) Booleano(ctx context.Context, chave string, padrao bool) (bool, error) {
	c, ok, err := s.buscar(ctx, chave)
	if err != nil || !ok {
		return padrao, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(c.Valor))
	if err != nil {
		return padrao, apperrors.Validation("configuração " + chave + " não é booleana").Wrapping(err)
	}
	return b, nil
}

// JSON decodifica o valor em dst; false quando a chave não existe.
func (s *Servico) JSON(ctx context.Context, chave string, dst any) (bool, error) {
	c, ok, err := s.buscar(ctx, chave)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(c.Valor), dst); err != nil {
		return false, apperrors.Validation("configuração " + chave + " não é JSON válido").Wrapping(err)
	}
	return true, nil
}
