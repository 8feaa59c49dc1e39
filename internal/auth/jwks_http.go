package auth

import (
	"encoding/base64"
	"math/big"
	"net/http"

	"github.com/KromaEnergia/api-controle-clube/internal/response"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// GET /.well-known/jwks.json
// Só publica chave quando a assinatura é RS256.
func JWKSHandler(keys *KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kid, pub, ok := keys.PublicKey()
		if !ok || pub == nil {
			response.JSON(w, http.StatusOK, struct {
				Keys []jwk `json:"keys"`
			}{Keys: []jwk{}})
			return
		}

		response.JSON(w, http.StatusOK, struct {
			Keys []jwk `json:"keys"`
		}{
			Keys: []jwk{{
				Kty: "RSA",
				Alg: "RS256",
				Use: "sig",
				Kid: kid,
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	}
}
