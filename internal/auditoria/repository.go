package auditoria

import (
	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"gorm.io/gorm"
)

type Filtro struct {
	Entidade   string
	EntidadeID uint
	Modulo     string
	UsuarioID  uint
	Critico    *bool
	Offset     int
	Limite     int
}

type Repository interface {
	Inserir(db *gorm.DB, r *Registro) error
	Listar(db *gorm.DB, f Filtro) ([]Registro, int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (repositoryImpl) Inserir(db *gorm.DB, r *Registro) error {
	if err := db.Create(r).Error; err != nil {
		return apperrors.Database(err, "erro ao gravar auditoria")
	}
	return nil
}

func (repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]Registro, int64, error) {
	q := db.Model(&Registro{})
	if f.Entidade != "" {
		q = q.Where("entidade = ?", f.Entidade)
	}
	if f.EntidadeID != 0 {
		q = q.Where("entidade_id = ?", f.EntidadeID)
	}
	if f.Modulo != "" {
		q = q.Where("modulo = ?", f.Modulo)
	}
	if f.UsuarioID != 0 {
		q = q.Where("usuario_id = ?", f.UsuarioID)
	}
	if f.Critico != nil {
		q = q.Where("critico = ?", *f.Critico)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao contar auditoria")
	}

	var out []Registro
	q = q.Order("id DESC").Offset(f.Offset)
	if f.Limite > 0 {
		q = q.Limit(f.Limite)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao listar auditoria")
	}
	return out, total, nil
}
