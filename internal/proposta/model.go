// Package proposta guarda as propostas comerciais e o fechamento das UCs,
// que alimenta o controle clube.
package proposta

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

// StatusUC é o andamento de cada UC dentro da proposta.
type StatusUC string

const (
	StatusAguardando StatusUC = "Aguardando"
	StatusFechada    StatusUC = "Fechada"
	StatusPerdida    StatusUC = "Perdida"
	StatusCancelada  StatusUC = "Cancelada"
)

func StatusUCValidos() []StatusUC {
	return []StatusUC{StatusAguardando, StatusFechada, StatusPerdida, StatusCancelada}
}

func (s StatusUC) Valido() bool {
	switch s {
	case StatusAguardando, StatusFechada, StatusPerdida, StatusCancelada:
		return true
	}
	return false
}

// UCProposta é a UC como foi ofertada. UnidadeID aponta para a linha
// normalizada em unidades_consumidoras depois do primeiro fechamento.
type UCProposta struct {
	NumeroUnidade string          `json:"numeroUnidade"`
	Apelido       string          `json:"apelido"`
	ConsumoMedio  decimal.Decimal `json:"consumoMedio"`
	TipoLigacao   string          `json:"tipoLigacao"`
	Distribuidora string          `json:"distribuidora"`
	Status        StatusUC        `json:"status"`
	UnidadeID     *uint           `json:"unidadeId,omitempty"`
}

func (u UCProposta) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.NumeroUnidade, validation.Required, validation.Length(1, 60)),
		validation.Field(&u.Status, validation.Required, validation.In(
			StatusAguardando, StatusFechada, StatusPerdida, StatusCancelada,
		).Error("deve ser Aguardando, Fechada, Perdida ou Cancelada")),
		validation.Field(&u.ConsumoMedio, validation.By(naoNegativo)),
	)
}

type Proposta struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Numero           string `gorm:"size:9;uniqueIndex;not null" json:"numero"`
	NomeCliente      string `gorm:"size:150;not null" json:"nomeCliente"`
	DocumentoCliente string `gorm:"size:20;index" json:"documentoCliente"`
	EmailCliente     string `gorm:"size:150" json:"emailCliente"`
	TelefoneCliente  string `gorm:"size:20" json:"telefoneCliente"`
	ConsultorID      *uint  `gorm:"index" json:"consultorId"`

	DescontoTarifa   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"descontoTarifa"`
	DescontoBandeira decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"descontoBandeira"`
	Inflacao         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"inflacao"`

	UnidadesConsumidoras []UCProposta      `gorm:"type:jsonb;serializer:json" json:"unidadesConsumidoras"`
	Documentacao         datatypes.JSONMap `gorm:"type:jsonb" json:"documentacao"`
	Observacoes          string            `gorm:"type:text" json:"observacoes"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Proposta) TableName() string { return "propostas" }

func (p Proposta) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.NomeCliente, validation.Required, validation.Length(1, 150)),
		validation.Field(&p.DescontoTarifa, validation.By(percentual)),
		validation.Field(&p.DescontoBandeira, validation.By(percentual)),
		validation.Field(&p.UnidadesConsumidoras, validation.By(numerosDistintos)),
	)
}

func (p *Proposta) BeforeSave(*gorm.DB) error {
	p.NomeCliente = strings.TrimSpace(p.NomeCliente)
	for i := range p.UnidadesConsumidoras {
		uc := &p.UnidadesConsumidoras[i]
		uc.NumeroUnidade = strings.TrimSpace(uc.NumeroUnidade)
		if uc.Status == "" {
			uc.Status = StatusAguardando
		}
	}
	return apperrors.DeValidacao(p.Validate())
}

// UC devolve a UC da proposta pelo número.
func (p *Proposta) UC(numero string) (*UCProposta, bool) {
	numero = strings.TrimSpace(numero)
	for i := range p.UnidadesConsumidoras {
		if p.UnidadesConsumidoras[i].NumeroUnidade == numero {
			return &p.UnidadesConsumidoras[i], true
		}
	}
	return nil, false
}

func (p *Proposta) TemFechada() bool {
	for _, uc := range p.UnidadesConsumidoras {
		if uc.Status == StatusFechada {
			return true
		}
	}
	return false
}

func numerosDistintos(v any) error {
	ucs, _ := v.([]UCProposta)
	vistos := make(map[string]bool, len(ucs))
	for _, uc := range ucs {
		n := strings.TrimSpace(uc.NumeroUnidade)
		if vistos[n] {
			return validation.NewError("validation_duplicated", "UC "+n+" repetida na proposta")
		}
		vistos[n] = true
	}
	return nil
}

var cem = decimal.NewFromInt(100)

func percentual(v any) error {
	d, _ := v.(decimal.Decimal)
	if d.IsNegative() || d.GreaterThan(cem) {
		return validation.NewError("validation_percent", "deve estar entre 0 e 100")
	}
	return nil
}

func naoNegativo(v any) error {
	d, _ := v.(decimal.Decimal)
	if d.IsNegative() {
		return validation.NewError("validation_negative", "não pode ser negativo")
	}
	return nil
}
