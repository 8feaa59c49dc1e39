package response

import (
	"net/http"
	"strconv"
)

// Paginado é o envelope das listagens.
type Paginado[T any] struct {
	Itens     []T   `json:"itens"`
	Total     int64 `json:"total"`
	Pagina    int   `json:"pagina"`
	PorPagina int   `json:"porPagina"`
}

// Pagina lê ?page e ?per_page (padrão 1 e 20, máximo 100).
func Pagina(r *http.Request) (pagina, porPagina int) {
	pagina, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if pagina < 1 {
		pagina = 1
	}
	porPagina, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	switch {
	case porPagina < 1:
		porPagina = 20
	case porPagina > 100:
		porPagina = 100
	}
	return pagina, porPagina
}

// Offset converte página em deslocamento.
func Offset(pagina, porPagina int) int {
	return (pagina - 1) * porPagina
}
