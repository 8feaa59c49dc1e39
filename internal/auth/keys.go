package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// KeySet guarda a chave de assinatura ativa: RS256 com kid quando há chave
// privada configurada, HS256 com segredo compartilhado caso contrário.
type KeySet struct {
	method jwt.SigningMethod
	kid    string
	secret []byte
	priv   *rsa.PrivateKey
	pubs   map[string]*rsa.PublicKey // kid -> pub
}

// NewKeySet escolhe RS256 ou HS256 a partir da configuração.
func NewKeySet(cfg config.AuthConfig) (*KeySet, error) {
	if cfg.RSAPrivatePath != "" {
		b, err := os.ReadFile(cfg.RSAPrivatePath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		return ParseRSAKeySet(b, cfg.KID)
	}
	return NewHMACKeySet([]byte(cfg.Secret))
}

func NewHMACKeySet(secret []byte) (*KeySet, error) {
	if len(secret) < 16 {
		return nil, errors.New("JWT_SECRET ausente ou curto demais (mínimo 16 bytes)")
	}
	return &KeySet{method: jwt.SigningMethodHS256, secret: secret}, nil
}

// ParseRSAKeySet aceita PKCS#1 ou PKCS#8 em PEM.
func ParseRSAKeySet(pemBytes []byte, kid string) (*KeySet, error) {
	if kid == "" {
		return nil, errors.New("AUTH_KID obrigatório com chave RSA")
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("pem decode private key failed")
	}

	var pk any
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		pk = k
	} else if k8, err2 := x509.ParsePKCS8PrivateKey(block.Bytes); err2 == nil {
		pk = k8
	} else {
		return nil, fmt.Errorf("parse private key: %v / %v", err, err2)
	}

	priv, ok := pk.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return &KeySet{
		method: jwt.SigningMethodRS256,
		kid:    kid,
		priv:   priv,
		pubs:   map[string]*rsa.PublicKey{kid: &priv.PublicKey},
	}, nil
}

func (k *KeySet) Method() jwt.SigningMethod { return k.method }

func (k *KeySet) sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(k.method, claims)
	if k.priv != nil {
		tok.Header["kid"] = k.kid
		return tok.SignedString(k.priv)
	}
	return tok.SignedString(k.secret)
}

func (k *KeySet) keyFunc(t *jwt.Token) (any, error) {
	if k.priv == nil {
		return k.secret, nil
	}
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("kid ausente")
	}
	pub, ok := k.pubs[kid]
	if !ok {
		return nil, errors.New("kid desconhecido")
	}
	return pub, nil
}

// PublicKey devolve a chave pública ativa (somente RS256).
func (k *KeySet) PublicKey() (string, *rsa.PublicKey, bool) {
	if k.priv == nil {
		return "", nil, false
	}
	return k.kid, k.pubs[k.kid], true
}
