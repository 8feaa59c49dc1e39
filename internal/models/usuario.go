package models

import (
	"time"
)

// Role é o papel do usuário no sistema.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAnalista  Role = "analista"
	RoleConsultor Role = "consultor"
	RoleGerente   Role = "gerente"
	RoleVendedor  Role = "vendedor"
)

// Roles lista todos os papéis válidos.
func Roles() []Role {
	return []Role{RoleAdmin, RoleAnalista, RoleConsultor, RoleGerente, RoleVendedor}
}

func (r Role) Valido() bool {
	switch r {
	case RoleAdmin, RoleAnalista, RoleConsultor, RoleGerente, RoleVendedor:
		return true
	default:
		return false
	}
}

// Usuario nunca é removido fisicamente; desativar = IsActive false.
type Usuario struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nome      string    `gorm:"size:150;not null" json:"nome"`
	Email     string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Senha     string    `gorm:"size:255;not null" json:"-"`
	Role      Role      `gorm:"size:20;not null;index" json:"role"`
	Telefone  string    `gorm:"size:20" json:"telefone"`
	ChavePix  string    `gorm:"size:150" json:"chavePix"`
	GerenteID *uint     `gorm:"index" json:"gerenteId"`
	Gerente   *Usuario  `gorm:"foreignKey:GerenteID" json:"gerente,omitempty"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Usuario) TableName() string { return "usuarios" }

// VeTodasPropostas indica papéis que enxergam propostas de outros consultores.
func (u *Usuario) VeTodasPropostas() bool {
	switch u.Role {
	case RoleAdmin, RoleAnalista, RoleGerente:
		return true
	default:
		return false
	}
}
