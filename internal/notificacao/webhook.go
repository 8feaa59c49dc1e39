// Package notificacao envia alertas para o webhook configurado.
package notificacao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Alerta é o payload enviado ao webhook.
type Alerta struct {
	Mensagem   string         `json:"mensagem"`
	Modulo     string         `json:"modulo,omitempty"`
	Evento     string         `json:"evento,omitempty"`
	Entidade   string         `json:"entidade,omitempty"`
	EntidadeID uint           `json:"entidadeId,omitempty"`
	UsuarioID  *uint          `json:"usuarioId,omitempty"`
	Dados      map[string]any `json:"dados,omitempty"`
	OcorridoEm time.Time      `json:"ocorridoEm"`
}

type Notificador interface {
	Enviar(ctx context.Context, a Alerta) error
}

type Webhook struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// NewWebhook devolve um webhook; URL vazia desliga o envio.
func NewWebhook(url string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
		Logger: logger,
	}
}

func (w *Webhook) Enviar(ctx context.Context, a Alerta) error {
	if w == nil || w.URL == "" {
		return nil
	}
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		w.Logger.Error("erro ao enviar webhook", "error", err.Error(), "evento", a.Evento)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.Logger.Error("webhook respondeu com erro", "status", resp.StatusCode, "evento", a.Evento)
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
