package auth

import (
	"context"

	"github.com/KromaEnergia/api-controle-clube/internal/models"
)

type ctxKey string

const (
	CtxUsuario ctxKey = "usuario"
	CtxClaims  ctxKey = "claims"
	CtxToken   ctxKey = "token"
)

// ComUsuario coloca usuário, claims e token bruto no contexto da requisição.
func ComUsuario(ctx context.Context, u *models.Usuario, claims *Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, CtxUsuario, u)
	return ComToken(ctx, claims, raw)
}

// ComToken troca apenas claims e token (após um refresh).
func ComToken(ctx context.Context, claims *Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, CtxClaims, claims)
	return context.WithValue(ctx, CtxToken, raw)
}

func UsuarioDoContexto(ctx context.Context) (*models.Usuario, bool) {
	u, ok := ctx.Value(CtxUsuario).(*models.Usuario)
	return u, ok && u != nil
}

func ClaimsDoContexto(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(CtxClaims).(*Claims)
	return c, ok && c != nil
}

func TokenDoContexto(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(CtxToken).(string)
	return t, ok && t != ""
}
