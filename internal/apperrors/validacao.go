package apperrors

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DeValidacao converte erros do ozzo-validation em erro de validação com
// os campos preenchidos. Outros erros passam intactos.
func DeValidacao(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for campo, e := range verrs {
			if e != nil {
				fields[campo] = e.Error()
			}
		}
		return Validation("dados inválidos").WithFields(fields).Wrapping(err)
	}
	var verr validation.Error
	if errors.As(err, &verr) {
		return Validation(verr.Error()).Wrapping(err)
	}
	return err
}
