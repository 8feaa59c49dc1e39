// Package auditoria mantém o log de auditoria, somente inserção.
package auditoria

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ações registradas.
const (
	AcaoCriar     = "create"
	AcaoAtualizar = "update"
	AcaoRemover   = "delete"
	AcaoStatus    = "status_change"
	AcaoCorrecao  = "admin_correction"
	AcaoLogin     = "login"
)

var ErrSomenteInsercao = errors.New("registro de auditoria não pode ser alterado nem removido")

type Registro struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Entidade   string            `gorm:"size:60;not null;index:idx_auditoria_entidade" json:"entidade"`
	EntidadeID uint              `gorm:"index:idx_auditoria_entidade" json:"entidadeId"`
	Acao       string            `gorm:"size:40;not null" json:"acao"`
	Antes      datatypes.JSON    `gorm:"type:jsonb" json:"antes,omitempty"`
	Depois     datatypes.JSON    `gorm:"type:jsonb" json:"depois,omitempty"`
	UsuarioID  *uint             `gorm:"index" json:"usuarioId"`
	IP         string            `gorm:"size:45" json:"ip"`
	UserAgent  string            `gorm:"size:255" json:"userAgent"`
	Contexto   datatypes.JSONMap `gorm:"type:jsonb" json:"contexto,omitempty"`
	EventoTipo string            `gorm:"size:60;index" json:"eventoTipo,omitempty"`
	Modulo     string            `gorm:"size:60;index" json:"modulo,omitempty"`
	Critico    bool              `gorm:"not null;default:false;index" json:"critico"`
	CreatedAt  time.Time         `gorm:"index" json:"createdAt"`
}

func (Registro) TableName() string { return "auditorias" }

func (*Registro) BeforeUpdate(*gorm.DB) error { return ErrSomenteInsercao }

func (*Registro) BeforeDelete(*gorm.DB) error { return ErrSomenteInsercao }
