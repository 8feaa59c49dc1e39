package auth

import (
	"net/http"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

// Códigos devolvidos em error_type nas falhas de autenticação.
const (
	CodeMissingToken     = "missing_token"
	CodeEmptyToken       = "empty_token"
	CodeUserNotFound     = "user_not_found"
	CodeUserInactive     = "user_inactive"
	CodeTokenExpired     = "token_expired"
	CodeTokenInvalid     = "token_invalid"
	CodeTokenBlacklisted = "token_blacklisted"
	CodeJWTError         = "jwt_error"
	CodeAuthError        = "auth_error"
)

func authErr(message, code string) *apperrors.Error {
	return apperrors.New(message, apperrors.CategoryAuth).
		WithTextCode(code).
		WithCode(http.StatusUnauthorized)
}

var (
	ErrTokenAusente         = authErr("Token de acesso não fornecido", CodeMissingToken)
	ErrTokenVazio           = authErr("Token de acesso vazio", CodeEmptyToken)
	ErrTokenExpirado        = authErr("Token expirado, faça login novamente", CodeTokenExpired)
	ErrTokenInvalido        = authErr("Token inválido", CodeTokenInvalid)
	ErrTokenRevogado        = authErr("Token revogado, faça login novamente", CodeTokenBlacklisted)
	ErrJWT                  = authErr("Erro ao processar token", CodeJWTError)
	ErrUsuarioNaoEncontrado = authErr("Usuário não encontrado", CodeUserNotFound)
	ErrUsuarioInativo       = authErr("Usuário inativo", CodeUserInactive)
	ErrAutenticacao         = authErr("Erro de autenticação", CodeAuthError)
	ErrCredenciaisInvalidas = authErr("Credenciais inválidas", CodeAuthError)
)

// comoErroAuth garante um erro de autenticação tipado; o resto vira jwt_error.
func comoErroAuth(err error) *apperrors.Error {
	if e, ok := apperrors.As(err); ok && e.Category == apperrors.CategoryAuth && e.TextCode != "" {
		return e
	}
	return ErrJWT.Wrapping(err)
}
