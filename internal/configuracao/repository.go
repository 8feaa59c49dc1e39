package configuracao

import (
	"errors"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"gorm.io/gorm"
)

type Repository interface {
	Listar(db *gorm.DB, grupo string) ([]Configuracao, error)
	BuscarPorChave(db *gorm.DB, chave string) (*Configuracao, error)
	Salvar(db *gorm.DB, c *Configuracao) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (repositoryImpl) Listar(db *gorm.DB, grupo string) ([]Configuracao, error) {
	var out []Configuracao
	q := db.Order("grupo, chave")
	if grupo != "" {
		q = q.Where("grupo = ?", grupo)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperrors.Database(err, "erro ao listar configurações")
	}
	return out, nil
}

func (repositoryImpl) BuscarPorChave(db *gorm.DB, chave string) (*Configuracao, error) {
	var c Configuracao
	err := db.Where("chave = ?", chave).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("configuração não encontrada: " + chave)
	}
	if err != nil {
		return nil, apperrors.Database(err, "erro ao buscar configuração")
	}
	return &c, nil
}

func (repositoryImpl) Salvar(db *gorm.DB, c *Configuracao) error {
	if err := db.Save(c).Error; err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("chave de configuração já existe")
		}
		return apperrors.Database(err, "erro ao salvar configuração")
	}
	return nil
}
