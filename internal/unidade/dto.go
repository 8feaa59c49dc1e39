package unidade

import "github.com/shopspring/decimal"

type UnidadeRequest struct {
	NumeroUnidade    *string          `json:"numeroUnidade"`
	Apelido          *string          `json:"apelido"`
	ConsumoMedio     *decimal.Decimal `json:"consumoMedio"`
	TipoLigacao      *string          `json:"tipoLigacao"`
	Distribuidora    *string          `json:"distribuidora"`
	Gerador          *bool            `json:"gerador"`
	NomeUsina        *string          `json:"nomeUsina"`
	PotenciaCC       *decimal.Decimal `json:"potenciaCc"`
	PotenciaCA       *decimal.Decimal `json:"potenciaCa"`
	FatorCapacidade  *decimal.Decimal `json:"fatorCapacidade"`
	Endereco         *Endereco        `json:"endereco"`
	NomeCobranca     *string          `json:"nomeCobranca"`
	EmailCobranca    *string          `json:"emailCobranca"`
	TelefoneCobranca *string          `json:"telefoneCobranca"`
}

// Aplicar copia para u os campos presentes no request.
func (req UnidadeRequest) Aplicar(u *UnidadeConsumidora) {
	if req.NumeroUnidade != nil {
		u.NumeroUnidade = *req.NumeroUnidade
	}
	if req.Apelido != nil {
		u.Apelido = *req.Apelido
	}
	if req.ConsumoMedio != nil {
		u.ConsumoMedio = *req.ConsumoMedio
	}
	if req.TipoLigacao != nil {
		u.TipoLigacao = *req.TipoLigacao
	}
	if req.Distribuidora != nil {
		u.Distribuidora = *req.Distribuidora
	}
	if req.Gerador != nil {
		u.Gerador = *req.Gerador
		if !u.Gerador {
			u.Capacidade = nil
		}
	}
	if req.NomeUsina != nil {
		u.NomeUsina = req.NomeUsina
	}
	if req.PotenciaCC != nil {
		u.PotenciaCC = req.PotenciaCC
	}
	if req.PotenciaCA != nil {
		u.PotenciaCA = req.PotenciaCA
	}
	if req.FatorCapacidade != nil {
		u.FatorCapacidade = req.FatorCapacidade
	}
	if req.Endereco != nil {
		u.Endereco = *req.Endereco
	}
	if req.NomeCobranca != nil {
		u.NomeCobranca = *req.NomeCobranca
	}
	if req.EmailCobranca != nil {
		u.EmailCobranca = *req.EmailCobranca
	}
	if req.TelefoneCobranca != nil {
		u.TelefoneCobranca = *req.TelefoneCobranca
	}
}

type ConverterUGRequest struct {
	NomeUsina       string           `json:"nomeUsina"`
	PotenciaCC      *decimal.Decimal `json:"potenciaCc"`
	PotenciaCA      *decimal.Decimal `json:"potenciaCa"`
	FatorCapacidade *decimal.Decimal `json:"fatorCapacidade"`
}
