package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

// ErrorHandler é o tratador de último nível para erros não resolvidos pelos middlewares.
type ErrorHandler struct {
	Debug  bool
	Logger *slog.Logger
}

func NewErrorHandler(debug bool, logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{Debug: debug, Logger: logger}
}

type statusCoder interface {
	StatusCode() int
}

// Classificar devolve o status HTTP e o error_type de um erro qualquer.
// Erros tipados são mapeados pela categoria; o resto cai na heurística por
// substring, que é apenas uma melhor tentativa.
func Classificar(err error) (int, string) {
	status := http.StatusInternalServerError
	var sc statusCoder
	if errors.As(err, &sc) {
		if c := sc.StatusCode(); c >= 100 && c <= 599 {
			status = c
		}
	}

	if e, ok := apperrors.As(err); ok {
		switch e.Category {
		case apperrors.CategoryAuth:
			if e.TextCode != "" {
				return status, e.TextCode
			}
			return status, "auth_error"
		case apperrors.CategoryAuthz:
			return status, "forbidden"
		case apperrors.CategoryRateLimit:
			return status, "rate_limit"
		case apperrors.CategoryValidation:
			return status, "validation_error"
		case apperrors.CategoryNotFound:
			return status, "not_found"
		case apperrors.CategoryConflict:
			return status, "conflict"
		case apperrors.CategoryUpload:
			return status, "upload_error"
		case apperrors.CategoryDatabase:
			return status, "database_error"
		}
		return status, "server_error"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "upload"), strings.Contains(msg, "file"), strings.Contains(msg, "storage"):
		return status, "upload_error"
	case strings.Contains(msg, "database"), strings.Contains(msg, "sql"):
		return status, "database_error"
	}
	return status, "server_error"
}

// Handle escreve a resposta de erro para err.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	status, errorType := Classificar(err)

	message := "Erro interno do servidor"
	if e, ok := apperrors.As(err); ok && e.Category != apperrors.CategoryInternal && e.Category != apperrors.CategoryDatabase {
		message = e.Message
	}

	extra := Body{"error_type": errorType}
	if e, ok := apperrors.As(err); ok && len(e.Fields) > 0 {
		extra["errors"] = e.Fields
	}
	if h.Debug {
		extra["debug_info"] = Body{
			"error": err.Error(),
			"type":  fmt.Sprintf("%T", err),
			"path":  r.URL.Path,
		}
	}

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	h.Logger.Log(r.Context(), level, "falha na requisição",
		"error", err.Error(),
		"error_type", errorType,
		"status", status,
		"url", r.URL.String(),
		"method", r.Method,
		"ip", ClientIP(r),
	)

	Falha(w, status, message, extra)
}

// Recuperar converte panics em respostas server_error.
func (h *ErrorHandler) Recuperar(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Logger.Error("panic recuperado", "panic", rec, "stack", string(debug.Stack()))
				h.Handle(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
