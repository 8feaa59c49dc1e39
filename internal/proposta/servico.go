package proposta

import (
	"context"
	"log/slog"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/auditoria"
	"github.com/KromaEnergia/api-controle-clube/internal/controle"
	"github.com/KromaEnergia/api-controle-clube/internal/unidade"
	"gorm.io/gorm"
)

const modulo = "propostas"

type Servico struct {
	DB         *gorm.DB
	Repository Repository
	Unidades   unidade.Repository
	Controles  controle.Repository
	Auditoria  *auditoria.Servico
	Logger     *slog.Logger
	now        func() time.Time
}

func NewServico(db *gorm.DB, audit *auditoria.Servico, logger *slog.Logger) *Servico {
	if logger == nil {
		logger = slog.Default()
	}
	return &Servico{
		DB:         db,
		Repository: NewRepository(),
		Unidades:   unidade.NewRepository(),
		Controles:  controle.NewRepository(),
		Auditoria:  audit,
		Logger:     logger,
		now:        time.Now,
	}
}

// WithClock troca o relógio (testes).
func (s *Servico) WithClock(now func() time.Time) *Servico {
	s.now = now
	return s
}

func (s *Servico) Criar(ctx context.Context, p *Proposta, origem auditoria.Origem) error {
	for i := range p.UnidadesConsumidoras {
		// status das UCs só muda pela rota própria
		p.UnidadesConsumidoras[i].Status = StatusAguardando
		p.UnidadesConsumidoras[i].UnidadeID = nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repository.Criar(tx, p, s.now().Year()); err != nil {
			return err
		}
		_, err := s.Auditoria.Registrar(ctx, tx, auditoria.Entrada{
			Entidade:   "proposta",
			EntidadeID: p.ID,
			Acao:       auditoria.AcaoCriar,
			Depois:     p,
			Modulo:     modulo,
			Origem:     origem,
		})
		return err
	})
}

// Atualizar grava os dados editáveis preservando status e vínculos das UCs
// já existentes. Uma UC fechada não pode sair da proposta.
func (s *Servico) Atualizar(ctx context.Context, id uint, aplicar func(p *Proposta), origem auditoria.Origem) (*Proposta, error) {
	var salvo *Proposta
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.Repository.BuscarPorID(tx, id)
		if err != nil {
			return err
		}
		antes := *p
		antes.UnidadesConsumidoras = append([]UCProposta(nil), p.UnidadesConsumidoras...)

		aplicar(p)
		p.ID, p.Numero = antes.ID, antes.Numero

		for i := range p.UnidadesConsumidoras {
			uc := &p.UnidadesConsumidoras[i]
			if anterior, ok := antes.UC(uc.NumeroUnidade); ok {
				uc.Status, uc.UnidadeID = anterior.Status, anterior.UnidadeID
			} else {
				uc.Status, uc.UnidadeID = StatusAguardando, nil
			}
		}
		for _, uc := range antes.UnidadesConsumidoras {
			if _, ok := p.UC(uc.NumeroUnidade); !ok && uc.Status == StatusFechada {
				return apperrors.Conflict("UC " + uc.NumeroUnidade + " está fechada e não pode ser removida da proposta")
			}
		}

		if err := s.Repository.Salvar(tx, p); err != nil {
			return err
		}
		if _, err := s.Auditoria.Registrar(ctx, tx, auditoria.Entrada{
			Entidade:   "proposta",
			EntidadeID: p.ID,
			Acao:       auditoria.AcaoAtualizar,
			Antes:      antes,
			Depois:     p,
			Modulo:     modulo,
			Origem:     origem,
		}); err != nil {
			return err
		}
		salvo = p
		return nil
	})
	return salvo, err
}

func (s *Servico) Remover(ctx context.Context, id uint, origem auditoria.Origem) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.Repository.BuscarPorID(tx, id)
		if err != nil {
			return err
		}
		if p.TemFechada() {
			return apperrors.Conflict("proposta com UC fechada não pode ser removida")
		}
		if err := s.Repository.Remover(tx, p); err != nil {
			return err
		}
		_, err = s.Auditoria.Registrar(ctx, tx, auditoria.Entrada{
			Entidade:   "proposta",
			EntidadeID: p.ID,
			Acao:       auditoria.AcaoRemover,
			Antes:      p,
			Modulo:     modulo,
			Origem:     origem,
		})
		return err
	})
}

// Fechamento é o resultado de uma mudança de status de UC.
type Fechamento struct {
	Proposta *Proposta                   `json:"proposta"`
	Unidade  *unidade.UnidadeConsumidora `json:"unidade,omitempty"`
	Controle *controle.ControleClube     `json:"controle,omitempty"`
}

// AlterarStatusUC muda o status de uma UC da proposta. Fechar cria (ou
// atualiza) a UC normalizada e abre o controle clube em Esteira; sair de
// Fechada remove o controle. Tudo na mesma transação.
func (s *Servico) AlterarStatusUC(ctx context.Context, id uint, numero string, novo StatusUC, origem auditoria.Origem) (*Fechamento, error) {
	if !novo.Valido() {
		return nil, apperrors.Validation("status inválido").
			WithFields(map[string]string{"status": "deve ser Aguardando, Fechada, Perdida ou Cancelada"})
	}

	var out Fechamento
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.Repository.BuscarPorID(tx, id)
		if err != nil {
			return err
		}
		uc, ok := p.UC(numero)
		if !ok {
			return apperrors.NotFound("UC " + numero + " não pertence à proposta")
		}
		out.Proposta = p
		anterior := uc.Status
		if anterior == novo {
			return nil
		}
		uc.Status = novo

		contexto := map[string]any{"uc": uc.NumeroUnidade, "de": string(anterior), "para": string(novo)}
		switch {
		case novo == StatusFechada:
			u, c, err := s.fechar(tx, p, uc)
			if err != nil {
				return err
			}
			out.Unidade, out.Controle = u, c
			contexto["controle_id"] = c.ID
		case anterior == StatusFechada:
			removido, err := s.reabrir(tx, p, uc)
			if err != nil {
				return err
			}
			if removido != nil {
				contexto["controle_removido"] = removido.ID
			}
		}

		if err := s.Repository.Salvar(tx, p); err != nil {
			return err
		}
		_, err = s.Auditoria.Registrar(ctx, tx, auditoria.Entrada{
			Entidade:   "proposta",
			EntidadeID: p.ID,
			Acao:       auditoria.AcaoStatus,
			EventoTipo: "status_uc",
			Contexto:   contexto,
			Modulo:     modulo,
			Origem:     origem,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Servico) fechar(tx *gorm.DB, p *Proposta, uc *UCProposta) (*unidade.UnidadeConsumidora, *controle.ControleClube, error) {
	u, err := s.Unidades.BuscarPorNumero(tx, uc.NumeroUnidade)
	if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
		u = &unidade.UnidadeConsumidora{NumeroUnidade: uc.NumeroUnidade}
	} else if err != nil {
		return nil, nil, err
	}
	u.Apelido = uc.Apelido
	u.ConsumoMedio = uc.ConsumoMedio
	u.TipoLigacao = uc.TipoLigacao
	u.Distribuidora = uc.Distribuidora
	u.PropostaID = &p.ID
	u.ConsultorID = p.ConsultorID
	if err := s.Unidades.Salvar(tx, u); err != nil {
		return nil, nil, err
	}
	uc.UnidadeID = &u.ID

	c, err := s.Controles.BuscarPorPropostaUC(tx, p.ID, u.ID)
	if err == nil {
		return u, c, nil
	}
	if !apperrors.IsCategory(err, apperrors.CategoryNotFound) {
		return nil, nil, err
	}
	c = &controle.ControleClube{
		PropostaID:       p.ID,
		UCID:             u.ID,
		ConsultorID:      p.ConsultorID,
		StatusTroca:      controle.StatusEsteira,
		DataTitularidade: s.now(),
		NomeCliente:      p.NomeCliente,
		DocumentoCliente: p.DocumentoCliente,
		ApelidoUC:        uc.Apelido,
		NumeroUC:         uc.NumeroUnidade,
	}
	if err := s.Controles.Salvar(tx, c); err != nil {
		return nil, nil, err
	}
	s.Logger.Info("controle clube aberto no fechamento",
		"proposta_id", p.ID, "uc", uc.NumeroUnidade, "controle_id", c.ID)
	return u, c, nil
}

func (s *Servico) reabrir(tx *gorm.DB, p *Proposta, uc *UCProposta) (*controle.ControleClube, error) {
	if uc.UnidadeID == nil {
		return nil, nil
	}
	c, err := s.Controles.BuscarPorPropostaUC(tx, p.ID, *uc.UnidadeID)
	if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.Controles.Remover(tx, c); err != nil {
		return nil, err
	}
	s.Logger.Info("controle clube removido: UC saiu de Fechada",
		"proposta_id", p.ID, "uc", uc.NumeroUnidade, "controle_id", c.ID)
	return c, nil
}
