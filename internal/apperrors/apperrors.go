// Package apperrors define o erro tipado usado por repositórios, serviços e
// middlewares para que a camada HTTP não precise adivinhar a causa de uma falha.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryAuthz      Category = "authz"
	CategoryRateLimit  Category = "rate_limit"
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryConflict   Category = "conflict"
	CategoryUpload     Category = "upload"
	CategoryDatabase   Category = "database"
	CategoryInternal   Category = "internal"
)

// Error carrega categoria, status HTTP e um código textual estável.
type Error struct {
	Category Category
	Code     int
	TextCode string
	Message  string
	Fields   map[string]string
	Err      error
}

func New(message string, category Category) *Error {
	return &Error{
		Category: category,
		Code:     defaultCode(category),
		Message:  message,
	}
}

// Wrap preserva a causa original para errors.Is / errors.As.
func Wrap(err error, category Category, message string) *Error {
	return &Error{
		Category: category,
		Code:     defaultCode(category),
		Message:  message,
		Err:      err,
	}
}

func (e *Error) WithCode(code int) *Error {
	c := *e
	c.Code = code
	return &c
}

func (e *Error) WithTextCode(textCode string) *Error {
	c := *e
	c.TextCode = textCode
	return &c
}

func (e *Error) WithFields(fields map[string]string) *Error {
	c := *e
	c.Fields = fields
	return &c
}

// Wrapping devolve uma cópia do erro-sentinela com a causa anexada.
func (e *Error) Wrapping(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara pelo TextCode, assim cópias de um sentinela continuam casando.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return t.TextCode != "" && t.TextCode == e.TextCode
}

// StatusCode é lido pelo handler de erros genérico.
func (e *Error) StatusCode() int { return e.Code }

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func IsCategory(err error, category Category) bool {
	e, ok := As(err)
	return ok && e.Category == category
}

func NotFound(message string) *Error { return New(message, CategoryNotFound) }

func Validation(message string) *Error { return New(message, CategoryValidation) }

func Database(err error, message string) *Error { return Wrap(err, CategoryDatabase, message) }

func Conflict(message string) *Error { return New(message, CategoryConflict) }

func defaultCode(category Category) int {
	switch category {
	case CategoryAuth:
		return http.StatusUnauthorized
	case CategoryAuthz:
		return http.StatusForbidden
	case CategoryRateLimit:
		return http.StatusTooManyRequests
	case CategoryValidation:
		return http.StatusUnprocessableEntity
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
