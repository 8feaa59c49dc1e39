package usuario

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/KromaEnergia/api-controle-clube/internal/models"
)

var rolesValidos = func() []any {
	out := make([]any, 0, len(models.Roles()))
	for _, r := range models.Roles() {
		out = append(out, r)
	}
	return out
}()

type CriarRequest struct {
	Nome      string      `json:"nome"`
	Email     string      `json:"email"`
	Senha     string      `json:"senha"`
	Role      models.Role `json:"role"`
	Telefone  string      `json:"telefone"`
	ChavePix  string      `json:"chavePix"`
	GerenteID *uint       `json:"gerenteId"`
}

func (req CriarRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Nome, validation.Required, validation.Length(2, 150)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat, validation.Length(0, 150)),
		validation.Field(&req.Senha, validation.When(req.Senha != "", validation.Length(8, 72))),
		validation.Field(&req.Role, validation.Required, validation.In(rolesValidos...).Error("papel desconhecido")),
		validation.Field(&req.Telefone, validation.Length(0, 20)),
	)
}

func (req CriarRequest) Usuario() *models.Usuario {
	return &models.Usuario{
		Nome:      strings.TrimSpace(req.Nome),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      req.Role,
		Telefone:  req.Telefone,
		ChavePix:  req.ChavePix,
		GerenteID: req.GerenteID,
		IsActive:  true,
	}
}

type AtualizarRequest struct {
	Nome      *string      `json:"nome"`
	Email     *string      `json:"email"`
	Role      *models.Role `json:"role"`
	Telefone  *string      `json:"telefone"`
	ChavePix  *string      `json:"chavePix"`
	GerenteID *uint        `json:"gerenteId"`
	IsActive  *bool        `json:"isActive"`
}

func (req AtualizarRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Nome, validation.NilOrNotEmpty, validation.Length(2, 150)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&req.Role, validation.NilOrNotEmpty, validation.In(rolesValidos...).Error("papel desconhecido")),
		validation.Field(&req.Telefone, validation.Length(0, 20)),
	)
}

func (req AtualizarRequest) Aplicar(u *models.Usuario) {
	if req.Nome != nil {
		u.Nome = strings.TrimSpace(*req.Nome)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Telefone != nil {
		u.Telefone = *req.Telefone
	}
	if req.ChavePix != nil {
		u.ChavePix = *req.ChavePix
	}
	if req.GerenteID != nil {
		u.GerenteID = req.GerenteID
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
}
