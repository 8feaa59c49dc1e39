package controle

import (
	"strings"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
)

// StatusTroca é o andamento da troca de titularidade.
type StatusTroca string

const (
	StatusEsteira     StatusTroca = "Esteira"
	StatusEmAndamento StatusTroca = "Em andamento"
	StatusAssociado   StatusTroca = "Associado"

	// nomes antigos ainda presentes em linhas históricas
	legadoAguardando StatusTroca = "Aguardando"
	legadoFinalizado StatusTroca = "Finalizado"
)

var legados = map[StatusTroca]StatusTroca{
	legadoAguardando: StatusEsteira,
	legadoFinalizado: StatusAssociado,
}

// proximo define o único avanço permitido a partir de cada estado.
var proximo = map[StatusTroca]StatusTroca{
	StatusEsteira:     StatusEmAndamento,
	StatusEmAndamento: StatusAssociado,
}

var ErrTransicaoInvalida = apperrors.Validation("transição de status inválida").WithTextCode("transicao_invalida")

func StatusValidos() []StatusTroca {
	return []StatusTroca{StatusEsteira, StatusEmAndamento, StatusAssociado}
}

func (s StatusTroca) Valido() bool {
	switch s {
	case StatusEsteira, StatusEmAndamento, StatusAssociado:
		return true
	}
	return false
}

// Legado indica um nome antigo que tem equivalente canônico.
func (s StatusTroca) Legado() bool {
	_, ok := legados[StatusTroca(strings.TrimSpace(string(s)))]
	return ok
}

// Normalizar converte nomes antigos e devolve ok=false se o resultado
// continuar fora dos três estados canônicos.
func Normalizar(s StatusTroca) (StatusTroca, bool) {
	s = StatusTroca(strings.TrimSpace(string(s)))
	if c, ok := legados[s]; ok {
		s = c
	}
	return s, s.Valido()
}

// Transicionar avança um passo na esteira e carimba a data do novo estado.
// Voltar ou pular estados só pela correção administrativa.
func (c *ControleClube) Transicionar(novo StatusTroca, agora time.Time) error {
	novo, ok := Normalizar(novo)
	if !ok {
		return apperrors.Validation("status_troca inválido").
			WithFields(map[string]string{"status_troca": "deve ser Esteira, Em andamento ou Associado"})
	}
	atual, _ := Normalizar(c.StatusTroca)
	if proximo[atual] != novo {
		return ErrTransicaoInvalida.WithFields(map[string]string{
			"status_troca": string(atual) + " -> " + string(novo),
		})
	}
	c.StatusTroca = novo
	c.carimbar(agora)
	return nil
}

// Corrigir define qualquer estado canônico (uso administrativo). Datas de
// estados posteriores ao novo são limpas; as que faltam são preenchidas.
func (c *ControleClube) Corrigir(novo StatusTroca, agora time.Time) error {
	novo, ok := Normalizar(novo)
	if !ok {
		return apperrors.Validation("status_troca inválido").
			WithFields(map[string]string{"status_troca": "deve ser Esteira, Em andamento ou Associado"})
	}
	c.StatusTroca = novo
	switch novo {
	case StatusEsteira:
		c.DataEmAndamento = nil
		c.DataAssinatura = nil
	case StatusEmAndamento:
		c.DataAssinatura = nil
	}
	c.carimbar(agora)
	return nil
}

func (c *ControleClube) carimbar(agora time.Time) {
	switch c.StatusTroca {
	case StatusEmAndamento:
		if c.DataEmAndamento == nil {
			c.DataEmAndamento = &agora
		}
	case StatusAssociado:
		if c.DataEmAndamento == nil {
			c.DataEmAndamento = &agora
		}
		if c.DataAssinatura == nil {
			c.DataAssinatura = &agora
		}
	}
}
