// Package unidade cuida das unidades consumidoras (UC) e das usinas geradoras (UG).
package unidade

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

var (
	horasMes = decimal.NewFromInt(720)
	cem      = decimal.NewFromInt(100)
)

// CalcularCapacidade devolve a geração mensal estimada: 720 x potência CC x fator/100.
func CalcularCapacidade(potenciaCC, fatorCapacidade decimal.Decimal) decimal.Decimal {
	return horasMes.Mul(potenciaCC).Mul(fatorCapacidade.Div(cem))
}

type UnidadeConsumidora struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	NumeroUnidade   string           `gorm:"size:60;not null;uniqueIndex:idx_uc_numero_ativo,where:deleted_at IS NULL" json:"numeroUnidade"`
	Apelido         string           `gorm:"size:120" json:"apelido"`
	ConsumoMedio    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"consumoMedio"`
	TipoLigacao     string           `gorm:"size:20" json:"tipoLigacao"`
	Distribuidora   string           `gorm:"size:80" json:"distribuidora"`
	Gerador         bool             `gorm:"not null;default:false;index" json:"gerador"`
	NomeUsina       *string          `gorm:"size:150" json:"nomeUsina"`
	PotenciaCC      *decimal.Decimal `gorm:"type:decimal(12,3)" json:"potenciaCc"`
	PotenciaCA      *decimal.Decimal `gorm:"type:decimal(12,3)" json:"potenciaCa"`
	FatorCapacidade *decimal.Decimal `gorm:"type:decimal(5,2)" json:"fatorCapacidade"`
	Capacidade      *decimal.Decimal `gorm:"type:decimal(14,3)" json:"capacidade"`

	Endereco

	NomeCobranca     string `gorm:"size:150" json:"nomeCobranca"`
	EmailCobranca    string `gorm:"size:150" json:"emailCobranca"`
	TelefoneCobranca string `gorm:"size:20" json:"telefoneCobranca"`

	PropostaID  *uint          `gorm:"index" json:"propostaId"`
	ConsultorID *uint          `gorm:"index" json:"consultorId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Endereco struct {
	Logradouro  string `gorm:"size:150" json:"logradouro"`
	Numero      string `gorm:"size:20" json:"numero"`
	Complemento string `gorm:"size:80" json:"complemento"`
	Bairro      string `gorm:"size:80" json:"bairro"`
	Cidade      string `gorm:"size:80" json:"cidade"`
	UF          string `gorm:"size:2" json:"uf"`
	CEP         string `gorm:"size:9" json:"cep"`
}

func (UnidadeConsumidora) TableName() string { return "unidades_consumidoras" }

// Validate aplica a regra de usina: geradora precisa de nome, potência CC e
// fator; não geradora não pode declarar capacidade.
func (u UnidadeConsumidora) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.NumeroUnidade, validation.Required, validation.Length(1, 60)),
		validation.Field(&u.NomeUsina,
			validation.When(u.Gerador, validation.Required.Error("obrigatório para unidade geradora")),
			validation.By(func(any) error {
				if u.Gerador && u.NomeUsina != nil && strings.TrimSpace(*u.NomeUsina) == "" {
					return validation.NewError("validation_required", "obrigatório para unidade geradora")
				}
				return nil
			})),
		validation.Field(&u.PotenciaCC,
			validation.When(u.Gerador, validation.Required.Error("obrigatório para unidade geradora")),
			validation.By(positivo)),
		validation.Field(&u.FatorCapacidade,
			validation.When(u.Gerador, validation.Required.Error("obrigatório para unidade geradora")),
			validation.By(percentual)),
		validation.Field(&u.Capacidade,
			validation.When(!u.Gerador, validation.Nil.Error("unidade não geradora não tem capacidade"))),
		validation.Field(&u.UF, validation.Length(0, 2)),
	)
}

func positivo(v any) error {
	d, _ := v.(*decimal.Decimal)
	if d != nil && !d.IsPositive() {
		return validation.NewError("validation_positive", "deve ser maior que zero")
	}
	return nil
}

func percentual(v any) error {
	d, _ := v.(*decimal.Decimal)
	if d != nil && (!d.IsPositive() || d.GreaterThan(cem)) {
		return validation.NewError("validation_percent", "deve estar entre 0 e 100")
	}
	return nil
}

// RecalcularCapacidade atualiza a capacidade a partir das specs da usina.
func (u *UnidadeConsumidora) RecalcularCapacidade() {
	if !u.Gerador || u.PotenciaCC == nil || u.FatorCapacidade == nil {
		return
	}
	c := CalcularCapacidade(*u.PotenciaCC, *u.FatorCapacidade)
	u.Capacidade = &c
}

func (u *UnidadeConsumidora) BeforeSave(*gorm.DB) error {
	u.NumeroUnidade = strings.TrimSpace(u.NumeroUnidade)
	u.UF = strings.ToUpper(strings.TrimSpace(u.UF))
	u.RecalcularCapacidade()
	return apperrors.DeValidacao(u.Validate())
}

// ConverterEmUG transforma a unidade em geradora com as specs informadas.
func (u *UnidadeConsumidora) ConverterEmUG(nomeUsina string, potenciaCC, potenciaCA *decimal.Decimal, fator decimal.Decimal) error {
	if u.Gerador {
		return apperrors.Conflict("unidade já é geradora")
	}
	u.Gerador = true
	u.NomeUsina = &nomeUsina
	u.PotenciaCC = potenciaCC
	u.PotenciaCA = potenciaCA
	u.FatorCapacidade = &fator
	u.RecalcularCapacidade()
	return apperrors.DeValidacao(u.Validate())
}
