package auditoria

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/auth"
	"github.com/KromaEnergia/api-controle-clube/internal/notificacao"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Origem identifica quem fez a alteração e de onde.
type Origem struct {
	UsuarioID *uint
	IP        string
	UserAgent string
}

// OrigemDaRequisicao monta a Origem a partir do usuário autenticado.
func OrigemDaRequisicao(r *http.Request) Origem {
	o := Origem{IP: response.ClientIP(r), UserAgent: r.UserAgent()}
	if u, ok := auth.UsuarioDoContexto(r.Context()); ok {
		id := u.ID
		o.UsuarioID = &id
	}
	return o
}

// Entrada descreve uma alteração a registrar. Antes e Depois são
// serializados em JSON como estão.
type Entrada struct {
	Entidade   string
	EntidadeID uint
	Acao       string
	Antes      any
	Depois     any
	Contexto   map[string]any
	EventoTipo string
	Modulo     string
	Critico    bool
	Origem     Origem
}

type Servico struct {
	Repository Repository
	Alertas    notificacao.Notificador
	Logger     *slog.Logger
	now        func() time.Time
}

func NewServico(alertas notificacao.Notificador, logger *slog.Logger) *Servico {
	if logger == nil {
		logger = slog.Default()
	}
	return &Servico{Repository: NewRepository(), Alertas: alertas, Logger: logger, now: time.Now}
}

// Registrar grava a entrada usando db, que pode ser uma transação em curso.
// O alerta das entradas críticas fica para Alertar, depois do commit.
func (s *Servico) Registrar(ctx context.Context, db *gorm.DB, e Entrada) (*Registro, error) {
	antes, err := paraJSON(e.Antes)
	if err != nil {
		return nil, fmt.Errorf("auditoria antes: %w", err)
	}
	depois, err := paraJSON(e.Depois)
	if err != nil {
		return nil, fmt.Errorf("auditoria depois: %w", err)
	}

	reg := &Registro{
		Entidade:   e.Entidade,
		EntidadeID: e.EntidadeID,
		Acao:       e.Acao,
		Antes:      antes,
		Depois:     depois,
		UsuarioID:  e.Origem.UsuarioID,
		IP:         e.Origem.IP,
		UserAgent:  truncar(e.Origem.UserAgent, 255),
		EventoTipo: e.EventoTipo,
		Modulo:     e.Modulo,
		Critico:    e.Critico,
		CreatedAt:  s.now(),
	}
	if len(e.Contexto) > 0 {
		reg.Contexto = datatypes.JSONMap(e.Contexto)
	}

	if err := s.Repository.Inserir(db.WithContext(ctx), reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Alertar envia o alerta dos registros críticos já confirmados no banco.
// Registros nil ou não críticos são ignorados; falha no envio só é logada.
func (s *Servico) Alertar(ctx context.Context, regs ...*Registro) {
	for _, reg := range regs {
		if reg != nil && reg.Critico {
			s.alertar(ctx, reg)
		}
	}
}

func (s *Servico) alertar(ctx context.Context, reg *Registro) {
	if s.Alertas == nil {
		return
	}
	s.Logger.Warn("evento crítico auditado",
		"entidade", reg.Entidade, "entidade_id", reg.EntidadeID, "acao", reg.Acao, "evento", reg.EventoTipo)

	err := s.Alertas.Enviar(context.WithoutCancel(ctx), notificacao.Alerta{
		Mensagem:   fmt.Sprintf("%s em %s #%d", reg.Acao, reg.Entidade, reg.EntidadeID),
		Modulo:     reg.Modulo,
		Evento:     reg.EventoTipo,
		Entidade:   reg.Entidade,
		EntidadeID: reg.EntidadeID,
		UsuarioID:  reg.UsuarioID,
		Dados:      map[string]any(reg.Contexto),
		OcorridoEm: reg.CreatedAt,
	})
	if err != nil {
		s.Logger.Error("falha ao enviar alerta de auditoria", "registro_id", reg.ID, "error", err.Error())
	}
}

func paraJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func truncar(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
