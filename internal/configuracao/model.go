// Package configuracao guarda as configurações globais chave -> valor.
package configuracao

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

type Tipo string

const (
	TipoString  Tipo = "string"
	TipoNumber  Tipo = "number"
	TipoBoolean Tipo = "boolean"
	TipoJSON    Tipo = "json"
)

// Chaves conhecidas.
const (
	ChaveCalibragemGlobal = "calibragem_global"
)

type Configuracao struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Chave     string    `gorm:"size:100;uniqueIndex;not null" json:"chave"`
	Valor     string    `gorm:"type:text" json:"valor"`
	Tipo      Tipo      `gorm:"size:20;not null;default:string" json:"tipo"`
	Grupo     string    `gorm:"size:60;index" json:"grupo"`
	Descricao string    `gorm:"size:255" json:"descricao"`
	UpdatedBy *uint     `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Configuracao) TableName() string { return "configuracoes" }

// Validate confere se o valor bate com o tipo declarado.
func (c Configuracao) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Chave, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Tipo, validation.Required, validation.In(TipoString, TipoNumber, TipoBoolean, TipoJSON)),
		validation.Field(&c.Valor, validation.By(func(any) error { return valorCompativel(c.Tipo, c.Valor) })),
	)
}

func (c *Configuracao) BeforeSave(*gorm.DB) error {
	c.Chave = strings.TrimSpace(c.Chave)
	return apperrors.DeValidacao(c.Validate())
}

func valorCompativel(tipo Tipo, valor string) error {
	switch tipo {
	case TipoNumber:
		if _, err := decimal.NewFromString(strings.TrimSpace(valor)); err != nil {
			return validation.NewError("validation_number", "deve ser numérico")
		}
	case TipoBoolean:
		if _, err := strconv.ParseBool(strings.TrimSpace(valor)); err != nil {
			return validation.NewError("validation_boolean", "deve ser true ou false")
		}
	case TipoJSON:
		if !json.Valid([]byte(valor)) {
			return validation.NewError("validation_json", "deve ser JSON válido")
		}
	}
	return nil
}
