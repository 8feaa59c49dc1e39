// Package snapshot congela, uma vez por mês, a fotografia do controle clube.
package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

var ErrSomenteLeitura = apperrors.Conflict("snapshot mensal é somente leitura").WithTextCode("snapshot_read_only")

// Resumo é a linha única por período AAAA-MM.
type Resumo struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Periodo          string    `gorm:"size:7;uniqueIndex;not null" json:"periodo"`
	TotalEsteira     int       `gorm:"not null" json:"totalEsteira"`
	TotalEmAndamento int       `gorm:"not null" json:"totalEmAndamento"`
	TotalAssociado   int       `gorm:"not null" json:"totalAssociado"`
	ComUG            int       `gorm:"column:com_ug;not null" json:"comUg"`
	SemUG            int       `gorm:"column:sem_ug;not null" json:"semUg"`
	Total            int       `gorm:"not null" json:"total"`
	GeradoEm         time.Time `gorm:"not null" json:"geradoEm"`
	GeradoPor        *uint     `json:"geradoPor"`
	Itens            []Item    `gorm:"foreignKey:ResumoID" json:"itens,omitempty"`
}

func (Resumo) TableName() string { return "controle_mensal_resumos" }

func (*Resumo) BeforeUpdate(*gorm.DB) error { return ErrSomenteLeitura }

func (*Resumo) BeforeDelete(*gorm.DB) error { return ErrSomenteLeitura }

// Item copia um registro do controle clube como estava no fechamento do mês.
type Item struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ResumoID         uint            `gorm:"not null;index" json:"resumoId"`
	ControleID       uint            `gorm:"not null" json:"controleId"`
	PropostaID       uint            `json:"propostaId"`
	UCID             uint            `gorm:"column:uc_id" json:"ucId"`
	UGID             *uint           `gorm:"column:ug_id" json:"ugId"`
	NomeCliente      string          `gorm:"size:150" json:"nomeCliente"`
	NumeroUC         string          `gorm:"column:numero_uc;size:60" json:"numeroUc"`
	ApelidoUC        string          `gorm:"column:apelido_uc;size:120" json:"apelidoUc"`
	StatusTroca      string          `gorm:"size:20" json:"statusTroca"`
	Calibragem       decimal.Decimal `gorm:"type:decimal(6,2)" json:"calibragem"`
	DataTitularidade time.Time       `json:"dataTitularidade"`
	DataAssinatura   *time.Time      `json:"dataAssinatura"`
	DataEmAndamento  *time.Time      `json:"dataEmAndamento"`
}

func (Item) TableName() string { return "controle_mensal_itens" }

func (*Item) BeforeUpdate(*gorm.DB) error { return ErrSomenteLeitura }

func (*Item) BeforeDelete(*gorm.DB) error { return ErrSomenteLeitura }
