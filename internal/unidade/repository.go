package unidade

import (
	"errors"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"gorm.io/gorm"
)

type Filtro struct {
	Gerador     *bool
	Busca       string
	ConsultorID *uint
	Offset      int
	Limite      int
}

type Repository interface {
	Listar(db *gorm.DB, f Filtro) ([]UnidadeConsumidora, int64, error)
	BuscarPorID(db *gorm.DB, id uint) (*UnidadeConsumidora, error)
	BuscarPorNumero(db *gorm.DB, numero string) (*UnidadeConsumidora, error)
	Salvar(db *gorm.DB, u *UnidadeConsumidora) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]UnidadeConsumidora, int64, error) {
	q := db.Model(&UnidadeConsumidora{})
	if f.Gerador != nil {
		q = q.Where("gerador = ?", *f.Gerador)
	}
	if f.ConsultorID != nil {
		q = q.Where("consultor_id = ?", *f.ConsultorID)
	}
	if b := strings.TrimSpace(f.Busca); b != "" {
		like := "%" + strings.ToLower(b) + "%"
		q = q.Where("LOWER(numero_unidade) LIKE ? OR LOWER(apelido) LIKE ? OR LOWER(nome_usina) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao contar unidades")
	}
	var out []UnidadeConsumidora
	q = q.Order("id").Offset(f.Offset)
	if f.Limite > 0 {
		q = q.Limit(f.Limite)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao listar unidades")
	}
	return out, total, nil
}

func (repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*UnidadeConsumidora, error) {
	var u UnidadeConsumidora
	if err := db.First(&u, id).Error; err != nil {
		return nil, traduzir(err)
	}
	return &u, nil
}

func (repositoryImpl) BuscarPorNumero(db *gorm.DB, numero string) (*UnidadeConsumidora, error) {
	var u UnidadeConsumidora
	if err := db.Where("numero_unidade = ?", strings.TrimSpace(numero)).First(&u).Error; err != nil {
		return nil, traduzir(err)
	}
	return &u, nil
}

func (repositoryImpl) Salvar(db *gorm.DB, u *UnidadeConsumidora) error {
	if err := db.Save(u).Error; err != nil {
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
		return apperrors.NotFound("unidade consumidora não encontrada")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("já existe unidade ativa com este número")
	}
	return apperrors.Database(err, "erro ao acessar unidades consumidoras")
}
