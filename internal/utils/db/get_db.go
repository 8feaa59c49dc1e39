package db

import (
	"context"

	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"gorm.io/gorm"
)

// GetDB resolve as credenciais e abre a conexão com o Postgres.
func GetDB(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	username, password, err := retrieveCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ConnectDataBase(cfg.Port, cfg.Host, cfg.Name, username, password, cfg.SSLDisable)
}
