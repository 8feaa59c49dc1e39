package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/configuracao"
	"github.com/KromaEnergia/api-controle-clube/internal/controle"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const FormatoPeriodo = "2006-01"

var ErrJaGerado = apperrors.Conflict("snapshot do período já foi gerado").WithTextCode("snapshot_exists")

// ValidarPeriodo aceita somente AAAA-MM.
func ValidarPeriodo(p string) error {
	if _, err := time.Parse(FormatoPeriodo, p); err != nil || len(p) != len(FormatoPeriodo) {
		return apperrors.Validation("período inválido").WithFields(map[string]string{"periodo": "use o formato AAAA-MM"})
	}
	return nil
}

type Servico struct {
	DB        *gorm.DB
	Controles controle.Repository
	Config    configuracao.Leitor
	Auditoria *auditoria.Servico
	Logger    *slog.Logger
	now       func() time.Time
}

func NewServico(db *gorm.DB, cfg configuracao.Leitor, audit *auditoria.Servico, logger *slog.Logger) *Servico {
	if logger == nil {
		logger = slog.Default()
	}
	return &Servico{
		DB:        db,
		Controles: controle.NewRepository(),
		Config:    cfg,
		Auditoria: audit,
		Logger:    logger,
		now:       time.Now,
	}
}

// WithClock troca o relógio (testes).
func (s *Servico) WithClock(now func() time.Time) *Servico {
	s.now = now
	return s
}

func (s *Servico) Listar(ctx context.Context) ([]Resumo, error) {
	var out []Resumo
	if err := s.DB.WithContext(ctx).Order("periodo DESC").Find(&out).Error; err != nil {
		return nil, apperrors.Database(err, "erro ao listar snapshots")
	}
	return out, nil
}

// Buscar devolve o resumo do período com todas as linhas.
func (s *Servico) Buscar(ctx context.Context, periodo string) (*Resumo, error) {
	if err := ValidarPeriodo(periodo); err != nil {
		return nil, err
	}
	var r Resumo
	err := s.DB.WithContext(ctx).
		Preload("Itens", func(db *gorm.DB) *gorm.DB { return db.Order("controle_id") }).
		Where("periodo = ?", periodo).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("snapshot do período " + periodo + " não encontrado")
	}
	if err != nil {
		return nil, apperrors.Database(err, "erro ao ler snapshot")
	}
	return &r, nil
}

// Gerar fotografa o controle clube atual no período informado. Um período
// só é gerado uma vez.
func (s *Servico) Gerar(ctx context.Context, periodo string, origem auditoria.Origem) (*Resumo, error) {
	if err := ValidarPeriodo(periodo); err != nil {
		return nil, err
	}
	global := decimal.Zero
	if s.Config != nil {
		var err error
		if global, err = s.Config.Numero(ctx, configuracao.ChaveCalibragemGlobal, decimal.Zero); err != nil {
			return nil, err
		}
	}

	var resumo *Resumo
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existe int64
		if err := tx.Model(&Resumo{}).Where("periodo = ?", periodo).Count(&existe).Error; err != nil {
			return apperrors.Database(err, "erro ao verificar snapshot")
		}
		if existe > 0 {
			return ErrJaGerado
		}

		controles, err := s.Controles.ListarTodos(tx)
		if err != nil {
			return err
		}
		resumo = montar(periodo, controles, global)
		resumo.GeradoEm = s.now()
		resumo.GeradoPor = origem.UsuarioID

		itens := resumo.Itens
		if err := tx.Omit(clause.Associations).Create(resumo).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrJaGerado
			}
			return apperrors.Database(err, "erro ao gravar snapshot")
		}
		for i := range itens {
			itens[i].ResumoID = resumo.ID
		}
		if len(itens) > 0 {
			if err := tx.CreateInBatches(itens, 200).Error; err != nil {
				return apperrors.Database(err, "erro ao gravar linhas do snapshot")
			}
		}

		_, err = s.Auditoria.Registrar(ctx, tx, auditoria.Entrada{
			Entidade:   "snapshot",
			EntidadeID: resumo.ID,
			Acao:       auditoria.AcaoCriar,
			EventoTipo: "snapshot_mensal",
			Modulo:     "controle",
			Contexto:   map[string]any{"periodo": periodo, "total": resumo.Total},
			Origem:     origem,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("snapshot mensal gerado", "periodo", periodo, "total", resumo.Total)
	return resumo, nil
}

// GerarSeAusente gera o mês corrente quando ainda não existe.
func (s *Servico) GerarSeAusente(ctx context.Context) (*Resumo, bool, error) {
	r, err := s.Gerar(ctx, s.now().Format(FormatoPeriodo), auditoria.Origem{})
	if errors.Is(err, ErrJaGerado) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func montar(periodo string, controles []controle.ControleClube, global decimal.Decimal) *Resumo {
	r := &Resumo{Periodo: periodo, Itens: make([]Item, 0, len(controles))}
	for _, c := range controles {
		switch c.StatusTroca {
		case controle.StatusEsteira:
			r.TotalEsteira++
		case controle.StatusEmAndamento:
			r.TotalEmAndamento++
		case controle.StatusAssociado:
			r.TotalAssociado++
		}
		if c.UGID != nil {
			r.ComUG++
		} else {
			r.SemUG++
		}
		calibragem := global
		if c.CalibragemIndividual != nil {
			calibragem = *c.CalibragemIndividual
		}
		r.Itens = append(r.Itens, Item{
			ControleID:       c.ID,
			PropostaID:       c.PropostaID,
			UCID:             c.UCID,
			UGID:             c.UGID,
			NomeCliente:      c.NomeCliente,
			NumeroUC:         c.NumeroUC,
			ApelidoUC:        c.ApelidoUC,
			StatusTroca:      string(c.StatusTroca),
			Calibragem:       calibragem,
			DataTitularidade: c.DataTitularidade,
			DataAssinatura:   c.DataAssinatura,
			DataEmAndamento:  c.DataEmAndamento,
		})
	}
	r.Total = len(controles)
	return r
}
