// Package controle implementa o controle clube: a esteira de associação de
// cada UC fechada até a troca de titularidade.
package controle

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/unidade"
)

type ControleClube struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	PropostaID  uint  `gorm:"not null;index" json:"propostaId"`
	UCID        uint  `gorm:"column:uc_id;not null;index" json:"ucId"`
	UGID        *uint `gorm:"column:ug_id;index" json:"ugId"`
	ConsultorID *uint `gorm:"index" json:"consultorId"`

	// nil herda o valor global/da proposta
	CalibragemIndividual *decimal.Decimal `gorm:"type:decimal(6,2)" json:"calibragemIndividual"`
	DescontoTarifa       *decimal.Decimal `gorm:"type:decimal(5,2)" json:"descontoTarifa"`
	DescontoBandeira     *decimal.Decimal `gorm:"type:decimal(5,2)" json:"descontoBandeira"`

	StatusTroca      StatusTroca `gorm:"size:20;not null;default:Esteira;index" json:"statusTroca"`
	DataTitularidade time.Time   `gorm:"not null" json:"dataTitularidade"`
	DataAssinatura   *time.Time  `json:"dataAssinatura"`
	DataEmAndamento  *time.Time  `json:"dataEmAndamento"`

	// cópia dos dados do cliente no fechamento
	NomeCliente      string `gorm:"size:150" json:"nomeCliente"`
	ApelidoUC        string `gorm:"column:apelido_uc;size:120" json:"apelidoUc"`
	DocumentoCliente string `gorm:"size:20" json:"documentoCliente"`
	NumeroUC         string `gorm:"column:numero_uc;size:60;index" json:"numeroUc"`

	UC *unidade.UnidadeConsumidora `gorm:"foreignKey:UCID" json:"uc,omitempty"`
	UG *unidade.UnidadeConsumidora `gorm:"foreignKey:UGID" json:"ug,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ControleClube) TableName() string { return "controle_clube" }

// AfterFind entrega sempre o nome canônico para valores antigos.
// Valores desconhecidos ficam como estão para a varredura de validação.
func (c *ControleClube) AfterFind(*gorm.DB) error {
	if n, ok := Normalizar(c.StatusTroca); ok {
		c.StatusTroca = n
	}
	return nil
}

func (c *ControleClube) BeforeSave(*gorm.DB) error {
	if c.StatusTroca == "" {
		c.StatusTroca = StatusEsteira
	}
	n, ok := Normalizar(c.StatusTroca)
	if !ok {
		return apperrors.Validation("status_troca inválido").
			WithFields(map[string]string{"status_troca": "valor não canônico: " + string(c.StatusTroca)})
	}
	c.StatusTroca = n
	if c.DataTitularidade.IsZero() {
		c.DataTitularidade = time.Now()
	}
	return nil
}

// Descontos herdados da proposta de origem.
type DescontosProposta struct {
	DescontoTarifa   decimal.Decimal `json:"descontoTarifa"`
	DescontoBandeira decimal.Decimal `json:"descontoBandeira"`
}

// Efetivo é o que vale para o controle depois de aplicar as heranças.
type Efetivo struct {
	Calibragem       decimal.Decimal `json:"calibragem"`
	DescontoTarifa   decimal.Decimal `json:"descontoTarifa"`
	DescontoBandeira decimal.Decimal `json:"descontoBandeira"`
}

func (c *ControleClube) Efetivo(calibragemGlobal decimal.Decimal, p DescontosProposta) Efetivo {
	e := Efetivo{
		Calibragem:       calibragemGlobal,
		DescontoTarifa:   p.DescontoTarifa,
		DescontoBandeira: p.DescontoBandeira,
	}
	if c.CalibragemIndividual != nil {
		e.Calibragem = *c.CalibragemIndividual
	}
	if c.DescontoTarifa != nil {
		e.DescontoTarifa = *c.DescontoTarifa
	}
	if c.DescontoBandeira != nil {
		e.DescontoBandeira = *c.DescontoBandeira
	}
	return e
}
