package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blacklist é a parte do token store que guarda jtis revogados.
type Blacklist interface {
	// Revogar marca o jti; o token continua aceito até validoAte (janela de tolerância).
	Revogar(ctx context.Context, jti string, expiraEm, validoAte time.Time) error
	Revogado(ctx context.Context, jti string, agora time.Time) (bool, error)
}

// TokenRevogado é uma linha da blacklist.
type TokenRevogado struct {
	ID        uint      `gorm:"primaryKey"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiraEm  time.Time `gorm:"index"`
	ValidoAte time.Time
	CreatedAt time.Time
}

func (TokenRevogado) TableName() string { return "tokens_revogados" }

type GormBlacklist struct {
	DB *gorm.DB
}

func NewGormBlacklist(db *gorm.DB) *GormBlacklist {
	return &GormBlacklist{DB: db}
}

// Revogar grava o jti. Se ele já estava revogado, vale a janela que termina
// primeiro: logout durante a tolerância de um refresh corta o token na hora.
func (b *GormBlacklist) Revogar(ctx context.Context, jti string, expiraEm, validoAte time.Time) error {
	row := TokenRevogado{JTI: jti, ExpiraEm: expiraEm, ValidoAte: validoAte}
	return b.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "jti"}},
			DoUpdates: clause.Assignments(map[string]any{
				"valido_ate": gorm.Expr("CASE WHEN tokens_revogados.valido_ate < excluded.valido_ate " +
					"THEN tokens_revogados.valido_ate ELSE excluded.valido_ate END"),
			}),
		}).
		Create(&row).Error
}

func (b *GormBlacklist) Revogado(ctx context.Context, jti string, agora time.Time) (bool, error) {
	var row TokenRevogado
	err := b.DB.WithContext(ctx).Where("jti = ?", jti).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !agora.Before(row.ValidoAte), nil
}

// Limpar remove entradas de tokens que já expiraram de qualquer forma.
func (b *GormBlacklist) Limpar(ctx context.Context, agora time.Time) (int64, error) {
	res := b.DB.WithContext(ctx).Where("expira_em < ?", agora).Delete(&TokenRevogado{})
	return res.RowsAffected, res.Error
}
