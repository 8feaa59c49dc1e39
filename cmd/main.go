package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/KromaEnergia/api-controle-clube/internal/configuracao"
	"github.com/KromaEnergia/api-controle-clube/internal/controle"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/KromaEnergia/api-controle-clube/internal/notificacao"
	"github.com/KromaEnergia/api-controle-clube/internal/proposta"
	"github.com/KromaEnergia/api-controle-clube/internal/ratelimit"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/KromaEnergia/api-controle-clube/internal/snapshot"
	"github.com/KromaEnergia/api-controle-clube/internal/unidade"
	"github.com/KromaEnergia/api-controle-clube/internal/utils/db"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("servidor encerrado com erro", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proxies, err := response.NovosProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	response.ConfiarEm(proxies)

	conn, err := db.GetDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("conectar no banco: %w", err)
	}

	// AutoMigrate para todos os modelos
	if err := conn.AutoMigrate(
		&models.Usuario{},
		&auth.TokenRevogado{},
		&ratelimit.CacheContador{},
		&configuracao.Configuracao{},
		&auditoria.Registro{},
		&unidade.UnidadeConsumidora{},
		&proposta.Proposta{},
		&controle.ControleClube{},
		&snapshot.Resumo{},
		&snapshot.Item{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	keys, err := auth.NewKeySet(cfg.Auth)
	if err != nil {
		return err
	}
	blacklist := auth.NewGormBlacklist(conn)
	tokens := auth.NewTokenService(keys, blacklist, cfg.Auth)

	store, err := ratelimit.NewStore(cfg.RateLimit.Store, conn)
	if err != nil {
		return err
	}

	app := &aplicacao{
		cfg:       cfg,
		db:        conn,
		logger:    logger,
		tokens:    tokens,
		limiter:   ratelimit.New(store, cfg.RateLimit, auth.IdentidadeRateLimit(tokens), logger),
		alertas:   notificacao.NewWebhook(cfg.Alerta, logger),
		configs:   configuracao.NewServico(conn),
		blacklist: blacklist,
	}
	app.auditoria = auditoria.NewServico(app.alertas, logger)

	r := app.rotas()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   append(auth.ExposedHeaders(), ratelimit.HeaderLimit, ratelimit.HeaderRemaining, ratelimit.HeaderReset, "Retry-After"),
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           c.Handler(app.erros().Recuperar(r)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go app.snapshots().Executar(ctx)
	go app.limpeza(ctx, store)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("falha no shutdown", "error", err.Error())
		}
	}()

	logger.Info("servidor rodando", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type aplicacao struct {
	cfg       *config.Config
	db        *gorm.DB
	logger    *slog.Logger
	tokens    *auth.TokenService
	limiter   *ratelimit.Limiter
	alertas   *notificacao.Webhook
	configs   *configuracao.Servico
	auditoria *auditoria.Servico
	blacklist *auth.GormBlacklist
}

// limpeza remove tokens revogados e contadores vencidos de hora em hora.
func (a *aplicacao) limpeza(ctx context.Context, store ratelimit.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case agora := <-ticker.C:
			if n, err := a.blacklist.Limpar(ctx, agora); err != nil {
				a.logger.Error("falha ao limpar blacklist", "error", err.Error())
			} else if n > 0 {
				a.logger.Info("blacklist limpa", "removidos", n)
			}

			switch s := store.(type) {
			case *ratelimit.MemoryStore:
				s.Limpar(agora)
			case *ratelimit.GormStore:
				if _, err := s.Limpar(ctx, agora); err != nil {
					a.logger.Error("falha ao limpar contadores", "error", err.Error())
				}
			}
		}
	}
}
