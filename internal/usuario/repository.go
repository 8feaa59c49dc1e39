// Package usuario mantém os usuários do painel e serve de fonte de
// identidade para a autenticação.
package usuario

import (
	"context"
	"errors"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"gorm.io/gorm"
)

type Filtro struct {
	Role      models.Role
	Ativos    *bool
	Busca     string
	GerenteID *uint
	// SomenteIDs restringe a listagem (equipe de um gerente, o próprio usuário)
	SomenteIDs []uint
	Offset     int
	Limite     int
}

type Repository interface {
	Listar(db *gorm.DB, f Filtro) ([]models.Usuario, int64, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.Usuario, error)
	BuscarPorEmail(db *gorm.DB, email string) (*models.Usuario, error)
	Salvar(db *gorm.DB, u *models.Usuario) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]models.Usuario, int64, error) {
	q := db.Model(&models.Usuario{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Ativos != nil {
		q = q.Where("is_active = ?", *f.Ativos)
	}
	if f.GerenteID != nil && f.SomenteIDs != nil {
		q = q.Where("gerente_id = ? OR id IN ?", *f.GerenteID, f.SomenteIDs)
	} else if f.GerenteID != nil {
		q = q.Where("gerente_id = ?", *f.GerenteID)
	} else if f.SomenteIDs != nil {
		q = q.Where("id IN ?", f.SomenteIDs)
	}
	if b := strings.TrimSpace(f.Busca); b != "" {
		like := "%" + strings.ToLower(b) + "%"
		q = q.Where("LOWER(nome) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao contar usuários")
	}
	var out []models.Usuario
	q = q.Order("nome").Offset(f.Offset)
	if f.Limite > 0 {
		q = q.Limit(f.Limite)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao listar usuários")
	}
	return out, total, nil
}

func (repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Usuario, error) {
	var u models.Usuario
	if err := db.First(&u, id).Error; err != nil {
		return nil, traduzir(err)
	}
	return &u, nil
}

func (repositoryImpl) BuscarPorEmail(db *gorm.DB, email string) (*models.Usuario, error) {
	var u models.Usuario
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, traduzir(err)
	}
	return &u, nil
}

func (repositoryImpl) Salvar(db *gorm.DB, u *models.Usuario) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
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
		return apperrors.NotFound("usuário não encontrado")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("e-mail já cadastrado")
	}
	return apperrors.Database(err, "erro ao acessar usuários")
}

// Store adapta o repositório para a autenticação, que trabalha com ctx.
type Store struct {
	DB         *gorm.DB
	Repository Repository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, Repository: NewRepository()}
}

func (s *Store) BuscarPorID(ctx context.Context, id uint) (*models.Usuario, error) {
	return s.Repository.BuscarPorID(s.DB.WithContext(ctx), id)
}

func (s *Store) BuscarPorEmail(ctx context.Context, email string) (*models.Usuario, error) {
	return s.Repository.BuscarPorEmail(s.DB.WithContext(ctx), email)
}
