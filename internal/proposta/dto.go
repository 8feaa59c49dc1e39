package proposta

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type UCRequest struct {
	NumeroUnidade string          `json:"numeroUnidade"`
	Apelido       string          `json:"apelido"`
	ConsumoMedio  decimal.Decimal `json:"consumoMedio"`
	TipoLigacao   string          `json:"tipoLigacao"`
	Distribuidora string          `json:"distribuidora"`
}

// PropostaRequest serve para criar e para atualizar: na atualização a lista
// de UCs substitui a anterior, mas status e vínculos são preservados.
type PropostaRequest struct {
	NomeCliente          string            `json:"nomeCliente"`
	DocumentoCliente     string            `json:"documentoCliente"`
	EmailCliente         string            `json:"emailCliente"`
	TelefoneCliente      string            `json:"telefoneCliente"`
	ConsultorID          *uint             `json:"consultorId"`
	DescontoTarifa       decimal.Decimal   `json:"descontoTarifa"`
	DescontoBandeira     decimal.Decimal   `json:"descontoBandeira"`
	Inflacao             decimal.Decimal   `json:"inflacao"`
	UnidadesConsumidoras []UCRequest       `json:"unidadesConsumidoras"`
	Documentacao         datatypes.JSONMap `json:"documentacao"`
	Observacoes          string            `json:"observacoes"`
}

func (req PropostaRequest) Aplicar(p *Proposta) {
	p.NomeCliente = req.NomeCliente
	p.DocumentoCliente = req.DocumentoCliente
	p.EmailCliente = req.EmailCliente
	p.TelefoneCliente = req.TelefoneCliente
	p.ConsultorID = req.ConsultorID
	p.DescontoTarifa = req.DescontoTarifa
	p.DescontoBandeira = req.DescontoBandeira
	p.Inflacao = req.Inflacao
	p.Documentacao = req.Documentacao
	p.Observacoes = req.Observacoes

	p.UnidadesConsumidoras = make([]UCProposta, 0, len(req.UnidadesConsumidoras))
	for _, uc := range req.UnidadesConsumidoras {
		p.UnidadesConsumidoras = append(p.UnidadesConsumidoras, UCProposta{
			NumeroUnidade: uc.NumeroUnidade,
			Apelido:       uc.Apelido,
			ConsumoMedio:  uc.ConsumoMedio,
			TipoLigacao:   uc.TipoLigacao,
			Distribuidora: uc.Distribuidora,
		})
	}
}

type StatusUCRequest struct {
	Status StatusUC `json:"status"`
}
