package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/KromaEnergia/api-controle-clube/internal/response"
	"github.com/gorilla/mux"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Identidade devolve a chave do chamador; erro ou string vazia caem para o IP.
type Identidade func(r *http.Request) (string, error)

type Limiter struct {
	store      Store
	max        int
	decay      time.Duration
	prefixo    string
	identidade Identidade
	Logger     *slog.Logger
	now        func() time.Time
}

func New(store Store, cfg config.RateLimitConfig, identidade Identidade, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		store:      store,
		max:        cfg.Max,
		decay:      cfg.Decay,
		identidade: identidade,
		Logger:     logger,
		now:        time.Now,
	}
	if l.max <= 0 {
		l.max = 60
	}
	if l.decay <= 0 {
		l.decay = time.Minute
	}
	l.prefixo = fmt.Sprintf("%d/%d", l.max, int(l.decay.Seconds()))
	return l
}

// WithClock troca o relógio (testes).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Com devolve uma cópia com outro limite, para uso em rotas específicas.
// Os contadores não se misturam com os do limitador original.
func (l *Limiter) Com(max int, decay time.Duration) *Limiter {
	c := *l
	if max > 0 {
		c.max = max
	}
	if decay > 0 {
		c.decay = decay
	}
	c.prefixo = fmt.Sprintf("%d/%d", c.max, int(c.decay.Seconds()))
	return &c
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agora := l.now()
		chave := "rl:" + l.prefixo + ":" + l.identificar(r)

		tentativas, err := l.store.Tentativas(r.Context(), chave, agora)
		if err != nil {
			// contador indisponível não derruba a API
			l.Logger.Error("rate limit: falha ao ler contador", "key", chave, "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(l.decay.Seconds())
		if tentativas >= l.max {
			l.Logger.Warn("rate limit excedido",
				"ip", response.ClientIP(r),
				"user_agent", r.UserAgent(),
				"route", rota(r),
				"attempts", tentativas,
				"max_attempts", l.max)
			h := w.Header()
			h.Set(HeaderLimit, strconv.Itoa(l.max))
			h.Set(HeaderRemaining, "0")
			h.Set(HeaderReset, strconv.FormatInt(agora.Add(l.decay).Unix(), 10))
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			response.LimiteExcedido(w, "Muitas requisições. Tente novamente em alguns instantes.", retryAfter)
			return
		}

		if _, err := l.store.Incrementar(r.Context(), chave, l.decay, agora); err != nil {
			l.Logger.Error("rate limit: falha ao incrementar contador", "key", chave, "error", err.Error())
		}

		restante := l.max - tentativas - 1
		if restante < 0 {
			restante = 0
		}
		h := w.Header()
		h.Set(HeaderLimit, strconv.Itoa(l.max))
		h.Set(HeaderRemaining, strconv.Itoa(restante))
		h.Set(HeaderReset, strconv.FormatInt(agora.Add(l.decay).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// identificar nunca falha: qualquer erro ou panic na resolução cai para o IP.
func (l *Limiter) identificar(r *http.Request) (id string) {
	ip := "ip:" + response.ClientIP(r)
	if l.identidade == nil {
		return ip
	}
	defer func() {
		if rec := recover(); rec != nil {
			l.Logger.Debug("rate limit: identidade falhou, usando IP", "panic", fmt.Sprint(rec), "ip", ip)
			id = ip
		}
	}()
	v, err := l.identidade(r)
	if err != nil || v == "" {
		if err != nil {
			l.Logger.Debug("rate limit: identidade falhou, usando IP", "error", err.Error(), "ip", ip)
		}
		return ip
	}
	return v
}

func rota(r *http.Request) string {
	if cr := mux.CurrentRoute(r); cr != nil {
		if name := cr.GetName(); name != "" {
			return name
		}
		if tpl, err := cr.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
