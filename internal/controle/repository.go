package controle

import (
	"errors"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"github.com/KromaEnergia/api-controle-clube/internal/unidade"
	"gorm.io/gorm"
)

type Filtro struct {
	Status      StatusTroca
	UGID        *uint
	SemUG       bool
	ConsultorID *uint
	Busca       string
	Offset      int
	Limite      int
}

// Inconsistencia é uma linha com status_troca fora dos valores canônicos.
type Inconsistencia struct {
	ID           uint   `json:"id"`
	Valor        string `json:"valor"`
	Normalizavel bool   `json:"normalizavel"`
	Sugestao     string `json:"sugestao,omitempty"`
}

type Repository interface {
	Listar(db *gorm.DB, f Filtro) ([]ControleClube, int64, error)
	ListarTodos(db *gorm.DB) ([]ControleClube, error)
	BuscarPorID(db *gorm.DB, id uint) (*ControleClube, error)
	BuscarPorPropostaUC(db *gorm.DB, propostaID, ucID uint) (*ControleClube, error)
	Salvar(db *gorm.DB, c *ControleClube) error
	Remover(db *gorm.DB, c *ControleClube) error
	DescontosDaProposta(db *gorm.DB, propostaID uint) (DescontosProposta, error)
	Inconsistencias(db *gorm.DB) ([]Inconsistencia, error)
	NormalizarLegados(db *gorm.DB) (map[string]int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]ControleClube, int64, error) {
	q := db.Model(&ControleClube{})
	if f.Status != "" {
		// inclui o nome antigo equivalente
		valores := []string{string(f.Status)}
		for antigo, novo := range legados {
			if novo == f.Status {
				valores = append(valores, string(antigo))
			}
		}
		q = q.Where("status_troca IN ?", valores)
	}
	if f.UGID != nil {
		q = q.Where("ug_id = ?", *f.UGID)
	}
	if f.SemUG {
		q = q.Where("ug_id IS NULL")
	}
	if f.ConsultorID != nil {
		q = q.Where("consultor_id = ?", *f.ConsultorID)
	}
	if f.Busca != "" {
		like := "%" + f.Busca + "%"
		q = q.Where("nome_cliente LIKE ? OR numero_uc LIKE ? OR documento_cliente LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao contar controle clube")
	}
	var out []ControleClube
	q = q.Preload("UG").Order("id").Offset(f.Offset)
	if f.Limite > 0 {
		q = q.Limit(f.Limite)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, apperrors.Database(err, "erro ao listar controle clube")
	}
	return out, total, nil
}

func (repositoryImpl) ListarTodos(db *gorm.DB) ([]ControleClube, error) {
	var out []ControleClube
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, apperrors.Database(err, "erro ao listar controle clube")
	}
	return out, nil
}

func (repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*ControleClube, error) {
	var c ControleClube
	if err := db.Preload("UC").Preload("UG").First(&c, id).Error; err != nil {
		return nil, traduzir(err)
	}
	return &c, nil
}

func (repositoryImpl) BuscarPorPropostaUC(db *gorm.DB, propostaID, ucID uint) (*ControleClube, error) {
	var c ControleClube
	err := db.Where("proposta_id = ? AND uc_id = ?", propostaID, ucID).First(&c).Error
	if err != nil {
		return nil, traduzir(err)
	}
	return &c, nil
}

func (repositoryImpl) Salvar(db *gorm.DB, c *ControleClube) error {
	if c.UGID != nil {
		ug, err := unidade.NewRepository().BuscarPorID(db, *c.UGID)
		if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
			return apperrors.Validation("UG não encontrada").WithFields(map[string]string{"ug_id": "não existe"})
		}
		if err != nil {
			return err
		}
		if !ug.Gerador {
			return apperrors.Validation("unidade informada não é geradora").
				WithFields(map[string]string{"ug_id": "deve referenciar uma unidade geradora"})
		}
	}
	if err := db.Omit("UC", "UG").Save(c).Error; err != nil {
		return traduzir(err)
	}
	return nil
}

func (repositoryImpl) Remover(db *gorm.DB, c *ControleClube) error {
	if err := db.Delete(c).Error; err != nil {
		return traduzir(err)
	}
	return nil
}

func (repositoryImpl) DescontosDaProposta(db *gorm.DB, propostaID uint) (DescontosProposta, error) {
	var d DescontosProposta
	err := db.Table("propostas").
		Select("desconto_tarifa, desconto_bandeira").
		Where("id = ?", propostaID).
		Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d, nil
	}
	if err != nil {
		return d, apperrors.Database(err, "erro ao ler descontos da proposta")
	}
	return d, nil
}

// Inconsistencias lê o valor gravado sem passar pelo AfterFind.
func (repositoryImpl) Inconsistencias(db *gorm.DB) ([]Inconsistencia, error) {
	var linhas []struct {
		ID          uint
		StatusTroca string
	}
	canonicos := make([]string, 0, 3)
	for _, s := range StatusValidos() {
		canonicos = append(canonicos, string(s))
	}
	err := db.Table("controle_clube").
		Select("id, status_troca").
		Where("deleted_at IS NULL").
		Where("status_troca NOT IN ? OR status_troca IS NULL", canonicos).
		Order("id").
		Scan(&linhas).Error
	if err != nil {
		return nil, apperrors.Database(err, "erro na varredura de status")
	}

	out := make([]Inconsistencia, 0, len(linhas))
	for _, l := range linhas {
		i := Inconsistencia{ID: l.ID, Valor: l.StatusTroca}
		if n, ok := Normalizar(StatusTroca(l.StatusTroca)); ok {
			i.Normalizavel = true
			i.Sugestao = string(n)
		}
		out = append(out, i)
	}
	return out, nil
}

// NormalizarLegados reescreve nomes antigos para os canônicos.
func (repositoryImpl) NormalizarLegados(db *gorm.DB) (map[string]int64, error) {
	out := map[string]int64{}
	for antigo, novo := range legados {
		res := db.Model(&ControleClube{}).
			Where("status_troca = ?", string(antigo)).
			UpdateColumn("status_troca", string(novo))
		if res.Error != nil {
			return nil, apperrors.Database(res.Error, "erro ao normalizar status")
		}
		out[string(antigo)] = res.RowsAffected
	}
	return out, nil
}

func traduzir(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("registro de controle clube não encontrado")
	}
	return apperrors.Database(err, "erro ao acessar controle clube")
}
