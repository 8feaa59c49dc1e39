package controle

import (
	"context"
	"log/slog"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/configuracao"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const modulo = "controle"

// Detalhe é o registro com os valores efetivos já resolvidos.
type Detalhe struct {
	*ControleClube
	Efetivo Efetivo `json:"efetivo"`
}

type Servico struct {
	DB         *gorm.DB
	Repository Repository
	Config     configuracao.Leitor
	Auditoria  *auditoria.Servico
	Logger     *slog.Logger
	now        func() time.Time
}

func NewServico(db *gorm.DB, cfg configuracao.Leitor, audit *auditoria.Servico, logger *slog.Logger) *Servico {
	if logger == nil {
		logger = slog.Default()
	}
	return &Servico{DB: db, Repository: NewRepository(), Config: cfg, Auditoria: audit, Logger: logger, now: time.Now}
}

// WithClock troca o relógio (testes).
func (s *Servico) WithClock(now func() time.Time) *Servico {
	s.now = now
	return s
}

// CalibragemGlobal lê calibragem_global; sem configuração vale zero.
func (s *Servico) CalibragemGlobal(ctx context.Context) (decimal.Decimal, error) {
	if s.Config == nil {
		return decimal.Zero, nil
	}
	return s.Config.Numero(ctx, configuracao.ChaveCalibragemGlobal, decimal.Zero)
}

func (s *Servico) Detalhar(ctx context.Context, c *ControleClube) (*Detalhe, error) {
	global, err := s.CalibragemGlobal(ctx)
	if err != nil {
		return nil, err
	}
	desc, err := s.Repository.DescontosDaProposta(s.DB.WithContext(ctx), c.PropostaID)
	if err != nil {
		return nil, err
	}
	return &Detalhe{ControleClube: c, Efetivo: c.Efetivo(global, desc)}, nil
}

func (s *Servico) Buscar(ctx context.Context, id uint) (*Detalhe, error) {
	c, err := s.Repository.BuscarPorID(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return s.Detalhar(ctx, c)
}

// alterar carrega, aplica fn e grava com auditoria na mesma transação.
// Alertas de entradas críticas saem só depois do commit.
func (s *Servico) alterar(ctx context.Context, id uint, e auditoria.Entrada, fn func(c *ControleClube) error) (*ControleClube, error) {
	var (
		salvo *ControleClube
		reg   *auditoria.Registro
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.Repository.BuscarPorID(tx, id)
		if err != nil {
			return err
		}
		antes := *c
		antes.UC, antes.UG = nil, nil
		if err := fn(c); err != nil {
			return err
		}
		if err := s.Repository.Salvar(tx, c); err != nil {
			return err
		}
		depois := *c
		depois.UC, depois.UG = nil, nil

		e.Entidade = "controle_clube"
		e.EntidadeID = c.ID
		e.Antes = antes
		e.Depois = depois
		e.Modulo = modulo
		registro, err := s.Auditoria.Registrar(ctx, tx, e)
		if err != nil {
			return err
		}
		salvo, reg = c, registro
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Auditoria.Alertar(ctx, reg)
	return salvo, nil
}

// AlterarStatus avança a esteira de troca de titularidade.
func (s *Servico) AlterarStatus(ctx context.Context, id uint, novo StatusTroca, origem auditoria.Origem) (*ControleClube, error) {
	return s.alterar(ctx, id, auditoria.Entrada{Acao: auditoria.AcaoStatus, EventoTipo: "status_troca", Origem: origem},
		func(c *ControleClube) error {
			return c.Transicionar(novo, s.now())
		})
}

// Corrigir é a correção administrativa: qualquer estado, auditoria crítica.
func (s *Servico) Corrigir(ctx context.Context, id uint, novo StatusTroca, motivo string, origem auditoria.Origem) (*ControleClube, error) {
	e := auditoria.Entrada{
		Acao:       auditoria.AcaoCorrecao,
		EventoTipo: "correcao_status",
		Critico:    true,
		Contexto:   map[string]any{"motivo": motivo, "status": string(novo)},
		Origem:     origem,
	}
	return s.alterar(ctx, id, e, func(c *ControleClube) error {
		return c.Corrigir(novo, s.now())
	})
}

// AtribuirUG vincula (ou desvincula, com nil) a usina geradora.
func (s *Servico) AtribuirUG(ctx context.Context, id uint, ugID *uint, origem auditoria.Origem) (*ControleClube, error) {
	return s.alterar(ctx, id, auditoria.Entrada{Acao: auditoria.AcaoAtualizar, EventoTipo: "atribuicao_ug", Origem: origem},
		func(c *ControleClube) error {
			c.UGID = ugID
			c.UG = nil
			return nil
		})
}

type Alteracao struct {
	CalibragemIndividual *decimal.Decimal
	LimparCalibragem     bool
	DescontoTarifa       *decimal.Decimal
	DescontoBandeira     *decimal.Decimal
	HerdarDescontos      bool
	DataTitularidade     *time.Time
	ApelidoUC            *string
}

func (s *Servico) Atualizar(ctx context.Context, id uint, a Alteracao, origem auditoria.Origem) (*ControleClube, error) {
	return s.alterar(ctx, id, auditoria.Entrada{Acao: auditoria.AcaoAtualizar, Origem: origem},
		func(c *ControleClube) error {
			if a.LimparCalibragem {
				c.CalibragemIndividual = nil
			} else if a.CalibragemIndividual != nil {
				c.CalibragemIndividual = a.CalibragemIndividual
			}
			if a.HerdarDescontos {
				c.DescontoTarifa, c.DescontoBandeira = nil, nil
			}
			if a.DescontoTarifa != nil {
				c.DescontoTarifa = a.DescontoTarifa
			}
			if a.DescontoBandeira != nil {
				c.DescontoBandeira = a.DescontoBandeira
			}
			if a.DataTitularidade != nil {
				c.DataTitularidade = *a.DataTitularidade
			}
			if a.ApelidoUC != nil {
				c.ApelidoUC = *a.ApelidoUC
			}
			return nil
		})
}

type ResultadoNormalizacao struct {
	Atualizados map[string]int64 `json:"atualizados"`
	Restantes   []Inconsistencia `json:"restantes"`
}

// NormalizarLegados reescreve Aguardando/Finalizado e devolve o que sobrou
// fora do padrão (valores que precisam de correção manual).
func (s *Servico) NormalizarLegados(ctx context.Context, origem auditoria.Origem) (*ResultadoNormalizacao, error) {
	var out ResultadoNormalizacao
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.Repository.NormalizarLegados(tx)
		if err != nil {
			return err
		}
		restantes, err := s.Repository.Inconsistencias(tx)
		if err != nil {
			return err
		}
		out = ResultadoNormalizacao{Atualizados: n, Restantes: restantes}

		total := int64(0)
		for _, v := range n {
			total += v
		}
		if total == 0 {
			return nil
		}
		_, err = s.Auditoria.Registrar(ctx, tx, auditoria.Entrada{
			Entidade:   "controle_clube",
			Acao:       auditoria.AcaoAtualizar,
			EventoTipo: "normalizacao_status",
			Modulo:     modulo,
			Contexto:   map[string]any{"atualizados": n},
			Origem:     origem,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(out.Restantes) > 0 {
		s.Logger.Warn("controle clube com status fora do padrão", "quantidade", len(out.Restantes))
	}
	return &out, nil
}
