package auth

import (
	"net/http"
	"strconv"
)

// IdentidadeRateLimit resolve a chave do limitador: usuário do contexto, senão
// o usuário do bearer token. Erro aqui faz o limitador cair para o IP.
func IdentidadeRateLimit(tokens TokenValidator) func(r *http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		if u, ok := UsuarioDoContexto(r.Context()); ok {
			return "user:" + strconv.FormatUint(uint64(u.ID), 10), nil
		}
		raw, err := ExtrairBearer(r)
		if err != nil {
			return "", err
		}
		claims, err := tokens.Validar(r.Context(), raw)
		if err != nil {
			return "", err
		}
		return "user:" + strconv.FormatUint(uint64(claims.UserID), 10), nil
	}
}
