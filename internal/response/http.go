package response

import (
	"encoding/json"
	"net/http"
)

// APIResponse é o envelope padrão de sucesso.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// Body é usado nas respostas de falha, que carregam campos variáveis.
type Body map[string]any

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Sucesso escreve {success, message, data}; a mensagem padrão segue o status.
func Sucesso[T any](w http.ResponseWriter, status int, data T) {
	SucessoComMensagem(w, status, mensagemPadrao(status), data)
}

func SucessoComMensagem[T any](w http.ResponseWriter, status int, message string, data T) {
	JSON(w, status, APIResponse[T]{Success: true, Message: message, Data: data})
}

func mensagemPadrao(status int) string {
	if status == http.StatusCreated {
		return "Criado com sucesso"
	}
	return "OK"
}

func Mensagem(w http.ResponseWriter, status int, message string) {
	JSON(w, status, APIResponse[any]{Success: true, Message: message})
}

// Falha escreve {success:false, message} mais os campos extras.
func Falha(w http.ResponseWriter, status int, message string, extra Body) {
	body := Body{"success": false, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, status, body)
}

// NaoAutenticado é a resposta de todas as falhas de autenticação.
func NaoAutenticado(w http.ResponseWriter, message, errorType string) {
	Falha(w, http.StatusUnauthorized, message, Body{
		"error_type":     errorType,
		"requires_login": true,
	})
}

func Proibido(w http.ResponseWriter, message string) {
	Falha(w, http.StatusForbidden, message, nil)
}

func LimiteExcedido(w http.ResponseWriter, message string, retryAfter int) {
	Falha(w, http.StatusTooManyRequests, message, Body{"retry_after": retryAfter})
}

// DecodeJSON lê o corpo da requisição em dst.
func DecodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
