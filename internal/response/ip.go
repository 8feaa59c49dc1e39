package response

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// Proxies é a lista de redes cujos headers de encaminhamento são aceitos.
type Proxies struct {
	redes []netip.Prefix
}

// NovosProxies aceita IPs ou CIDRs ("10.0.0.0/8", "127.0.0.1").
func NovosProxies(entradas []string) (*Proxies, error) {
	p := &Proxies{}
	for _, e := range entradas {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			addr, err := netip.ParseAddr(e)
			if err != nil {
				return nil, fmt.Errorf("proxy confiável inválido %q: %w", e, err)
			}
			p.redes = append(p.redes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		pref, err := netip.ParsePrefix(e)
		if err != nil {
			return nil, fmt.Errorf("proxy confiável inválido %q: %w", e, err)
		}
		p.redes = append(p.redes, pref.Masked())
	}
	return p, nil
}

func (p *Proxies) confiavel(ip string) bool {
	if p == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, r := range p.redes {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP devolve o par da conexão. X-Forwarded-For / X-Real-IP só valem
// quando o par é um proxy confiável; no XFF vence o primeiro endereço, da
// direita para a esquerda, que não é proxy.
func (p *Proxies) ClientIP(r *http.Request) string {
	par := enderecoRemoto(r.RemoteAddr)
	if !p.confiavel(par) {
		return par
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		partes := strings.Split(xff, ",")
		for i := len(partes) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(partes[i])
			if ip == "" {
				continue
			}
			if !p.confiavel(ip) {
				return ip
			}
		}
		return strings.TrimSpace(partes[0])
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	return par
}

func enderecoRemoto(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

var proxiesAtivos atomic.Pointer[Proxies]

// ConfiarEm troca a lista global de proxies usada por ClientIP (startup).
func ConfiarEm(p *Proxies) {
	proxiesAtivos.Store(p)
}

// ClientIP usa os proxies configurados via ConfiarEm; sem configuração,
// vale sempre o RemoteAddr.
func ClientIP(r *http.Request) string {
	return proxiesAtivos.Load().ClientIP(r)
}
