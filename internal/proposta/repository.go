package proposta

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"gorm.io/gorm"
)

type Filtro struct {
	Busca       string
	ConsultorID *uint
	Offset      int
	Limite      int
}

type Repository interface {
	Listar(db *gorm.DB, f Filtro) ([]Proposta, int64, error)
	BuscarPorID(db *gorm.DB, id uint) (*Proposta, error)
	Criar(db *gorm.DB, p *Proposta, ano int) error
	Salvar(db *gorm.DB, p *Proposta) error
	Remover(db *gorm.DB, p *Proposta) error
	ProximoNumero(db *gorm.DB, ano int) (string, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]Proposta, int64, error) {
	q := db.Model(&Proposta{})
	if f.ConsultorID != nil {
		q = q.Where("consultor_id = ?", *f.ConsultorID)
	}
	if b := strings.TrimSpace(f.Busca); b != "" {
		like := "%" + strings.ToLower(b) + "%"
		q = q.Where("LOWER(nome_cliente) LIKE ? OR numero LIKE ? OR documento_cliente LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao contar propostas")
	}
	var out []Proposta
	q = q.Order("id DESC").Offset(f.Offset)
	if f.Limite > 0 {
		q = q.Limit(f.Limite)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao listar propostas")
	}
	return out, total, nil
}

func (repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Proposta, error) {
	var p Proposta
	if err := db.First(&p, id).Error; err != nil {
		return nil, traduzir(err)
	}
	return &p, nil
}

// ProximoNumero gera AAAA/NNNN seguindo o maior número do ano, contando
// também propostas removidas para nunca reaproveitar um número.
func (repositoryImpl) ProximoNumero(db *gorm.DB, ano int) (string, error) {
	prefixo := fmt.Sprintf("%04d/", ano)
	var numeros []string
	err := db.Unscoped().Model(&Proposta{}).
		Where("numero LIKE ?", prefixo+"%").
		Order("numero DESC").
		Limit(1).
		Pluck("numero", &numeros).Error
	if err != nil {
		return "", apperrors.Database(err, "erro ao gerar número da proposta")
	}
	seq := 1
	if len(numeros) > 0 {
		n, err := strconv.Atoi(strings.TrimPrefix(numeros[0], prefixo))
		if err != nil {
			return "", apperrors.Database(err, "número de proposta fora do padrão: "+numeros[0])
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%04d", prefixo, seq), nil
}

func (r repositoryImpl) Criar(db *gorm.DB, p *Proposta, ano int) error {
	if p.Numero == "" {
		n, err := r.ProximoNumero(db, ano)
		if err != nil {
			return err
		}
		p.Numero = n
	}
	if err := db.Create(p).Error; err != nil {
		return traduzir(err)
	}
	return nil
}

func (repositoryImpl) Salvar(db *gorm.DB, p *Proposta) error {
	if err := db.Save(p).Error; err != nil {
		return traduzir(err)
	}
	return nil
}

func (repositoryImpl) Remover(db *gorm.DB, p *Proposta) error {
	if err := db.Delete(p).Error; err != nil {
		return traduzir(err)
	}
	return nil
}

func traduzir(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound("proposta não encontrada")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("número de proposta já utilizado")
	}
	return apperrors.Database(err, "erro ao acessar propostas")
}
