package response

import (
	"net/http"
	"strconv"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/gorilla/mux"
)

// ID lê um parâmetro numérico da rota.
func ID(r *http.Request, nome string) (uint, error) {
	v, err := strconv.ParseUint(mux.Vars(r)[nome], 10, 64)
	if err != nil || v == 0 {
		return 0, apperrors.Validation("parâmetro " + nome + " inválido").
			WithFields(map[string]string{nome: "deve ser um inteiro positivo"})
	}
	return uint(v), nil
}

// Decodificar lê o JSON do corpo; falha vira erro de validação.
func Decodificar(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return apperrors.Validation("payload inválido").Wrapping(err)
	}
	return nil
}
