package snapshot

import (
	"context"
	"log/slog"
	"time"
)

type gerador interface {
	GerarSeAusente(ctx context.Context) (*Resumo, bool, error)
}

// Agendador roda GerarSeAusente na partida e a cada Intervalo até o ctx
// ser cancelado.
type Agendador struct {
	Gerador   gerador
	Intervalo time.Duration
	Logger    *slog.Logger
}

func NewAgendador(g gerador, intervalo time.Duration, logger *slog.Logger) *Agendador {
	if intervalo <= 0 {
		intervalo = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agendador{Gerador: g, Intervalo: intervalo, Logger: logger}
}

func (a *Agendador) Executar(ctx context.Context) {
	ticker := time.NewTicker(a.Intervalo)
	defer ticker.Stop()

	a.rodar(ctx)
	for {
		select {
		case <-ticker.C:
			a.rodar(ctx)
		case <-ctx.Done():
			a.Logger.Info("agendador de snapshot encerrado")
			return
		}
	}
}

func (a *Agendador) rodar(ctx context.Context) {
	r, gerado, err := a.Gerador.GerarSeAusente(ctx)
	if err != nil {
		a.Logger.Error("falha ao gerar snapshot mensal", "error", err.Error())
		return
	}
	if gerado {
		a.Logger.Info("snapshot mensal criado pelo agendador", "periodo", r.Periodo)
	}
}
