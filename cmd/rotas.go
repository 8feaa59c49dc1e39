package main

import (
	"net/http"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/configuracao"
	"github.com/KromaEnergia/api-controle-clube/internal/controle"
	"github.com/KromaEnergia/api-controle-clube/internal/permissao"
	"github.com/KromaEnergia/api-controle-clube/internal/proposta"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/KromaEnergia/api-controle-clube/internal/snapshot"
	"github.com/KromaEnergia/api-controle-clube/internal/unidade"
	"github.com/KromaEnergia/api-controle-clube/internal/usuario"
	"github.com/gorilla/mux"
)

func (a *aplicacao) erros() *response.ErrorHandler {
	return response.NewErrorHandler(!a.cfg.Production(), a.logger)
}

func (a *aplicacao) snapshots() *snapshot.Agendador {
	svc := snapshot.NewServico(a.db, a.configs, a.auditoria, a.logger)
	return snapshot.NewAgendador(svc, a.cfg.Snapshot, a.logger)
}

func (a *aplicacao) rotas() *mux.Router {
	erros := a.erros()
	resolver := permissao.NewResolver(permissao.TabelaPadrao(), a.logger)

	authHandler := auth.NewHandler(a.tokens, usuario.NewStore(a.db), a.logger)
	autenticador := auth.NewAutenticador(a.tokens, usuario.NewStore(a.db), a.logger)
	autoRefresh := auth.NewAutoRefresh(a.tokens, a.cfg.Auth.RefreshThreshold, a.logger)

	usuarioHandler := usuario.NewHandler(a.db, a.auditoria, erros)
	unidadeHandler := unidade.NewHandler(a.db, a.auditoria, erros)
	propostaHandler := proposta.NewHandler(proposta.NewServico(a.db, a.auditoria, a.logger), erros)
	controleHandler := controle.NewHandler(controle.NewServico(a.db, a.configs, a.auditoria, a.logger), resolver, erros)
	snapshotHandler := snapshot.NewHandler(snapshot.NewServico(a.db, a.configs, a.auditoria, a.logger), erros)
	configHandler := configuracao.NewHandler(a.db, a.auditoria, erros)
	auditoriaHandler := auditoria.NewHandler(a.db, erros)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.Mensagem(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/jwks.json", auth.JWKSHandler(a.tokens.Keys())).Methods(http.MethodGet)

	// Rotas públicas de autenticação
	pub := r.PathPrefix("/auth").Subrouter()
	pub.Handle("/login", a.limiter.Com(5, time.Minute).Middleware(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	pub.Handle("/refresh", a.limiter.Middleware(http.HandlerFunc(authHandler.Refresh))).Methods(http.MethodPost)

	sessao := r.PathPrefix("/auth").Subrouter()
	sessao.Use(autenticador.Middleware)
	sessao.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	sessao.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(a.limiter.Middleware, autenticador.Middleware, autoRefresh.Middleware)

	rota := func(metodo, caminho string, h http.HandlerFunc, perms ...string) {
		api.Handle(caminho, resolver.Requer(perms...)(h)).Methods(metodo)
	}

	rota(http.MethodGet, "/me/permissoes", resolver.MinhasPermissoes)

	// Rotas de usuários
	rota(http.MethodGet, "/usuarios", usuarioHandler.Listar, permissao.UsuariosView)
	rota(http.MethodPost, "/usuarios", usuarioHandler.Criar, permissao.UsuariosCreate)
	rota(http.MethodGet, "/usuarios/{id:[0-9]+}", usuarioHandler.Buscar, permissao.UsuariosView)
	rota(http.MethodPut, "/usuarios/{id:[0-9]+}", usuarioHandler.Atualizar, permissao.UsuariosEdit)
	rota(http.MethodDelete, "/usuarios/{id:[0-9]+}", usuarioHandler.Desativar, permissao.UsuariosDelete)
	rota(http.MethodPost, "/usuarios/{id:[0-9]+}/redefinir-senha", usuarioHandler.RedefinirSenha, permissao.UsuariosEdit)

	// Rotas de propostas
	rota(http.MethodGet, "/propostas", propostaHandler.Listar, permissao.PropostasView)
	rota(http.MethodPost, "/propostas", propostaHandler.Criar, permissao.PropostasCreate)
	rota(http.MethodGet, "/propostas/{id:[0-9]+}", propostaHandler.Buscar, permissao.PropostasView)
	rota(http.MethodPut, "/propostas/{id:[0-9]+}", propostaHandler.Atualizar, permissao.PropostasEdit)
	rota(http.MethodDelete, "/propostas/{id:[0-9]+}", propostaHandler.Remover, permissao.PropostasDelete)
	rota(http.MethodPatch, "/propostas/{id:[0-9]+}/ucs/{numero}/status", propostaHandler.AlterarStatusUC, permissao.PropostasChangeStatus)

	// Rotas de unidades consumidoras / geradoras
	rota(http.MethodGet, "/unidades", unidadeHandler.Listar, permissao.UnidadesView)
	rota(http.MethodPost, "/unidades", unidadeHandler.Criar, permissao.UnidadesCreate)
	rota(http.MethodGet, "/unidades/{id:[0-9]+}", unidadeHandler.Buscar, permissao.UnidadesView)
	rota(http.MethodPut, "/unidades/{id:[0-9]+}", unidadeHandler.Atualizar, permissao.UnidadesEdit)
	rota(http.MethodPost, "/unidades/{id:[0-9]+}/converter-ug", unidadeHandler.ConverterUG, permissao.UnidadesConvertUG)

	// Rotas do controle clube
	rota(http.MethodGet, "/controle", controleHandler.Listar, permissao.ControleView)
	rota(http.MethodGet, "/controle/validacao", controleHandler.Validar, permissao.ControleView)
	rota(http.MethodPost, "/controle/normalizar", controleHandler.Normalizar, permissao.ControleEdit)
	rota(http.MethodGet, "/controle/{id:[0-9]+}", controleHandler.Buscar, permissao.ControleView)
	rota(http.MethodPut, "/controle/{id:[0-9]+}", controleHandler.Atualizar, permissao.ControleEdit)
	rota(http.MethodPatch, "/controle/{id:[0-9]+}/status", controleHandler.AlterarStatus, permissao.ControleEdit)
	rota(http.MethodPost, "/controle/{id:[0-9]+}/correcao", controleHandler.Corrigir, permissao.ControleEdit)
	rota(http.MethodPut, "/controle/{id:[0-9]+}/ug", controleHandler.AtribuirUG, permissao.ControleManageUG)

	// Fechamentos mensais
	rota(http.MethodGet, "/snapshots", snapshotHandler.Listar, permissao.RelatoriosView)
	rota(http.MethodPost, "/snapshots", snapshotHandler.Gerar, permissao.RelatoriosView)
	rota(http.MethodGet, "/snapshots/{periodo}", snapshotHandler.Buscar, permissao.RelatoriosView)

	rota(http.MethodGet, "/configuracoes", configHandler.Listar, permissao.ConfiguracoesView)
	rota(http.MethodGet, "/configuracoes/{chave}", configHandler.Buscar, permissao.ConfiguracoesView)
	rota(http.MethodPut, "/configuracoes/{chave}", configHandler.Atualizar, permissao.ConfiguracoesEdit)

	rota(http.MethodGet, "/auditoria", auditoriaHandler.Listar, permissao.AuditoriaView)

	return r
}
