package utils

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/KromaEnergia/api-controle-clube/internal/apperrors"
	"golang.org/x/crypto/bcrypt"
)

const senhaChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// bcrypt ignora o que passa de 72 bytes.
const tamanhoMaximoSenha = 72

var ErrSenhaLonga = apperrors.Validation("senha excede 72 bytes").
	WithFields(map[string]string{"senha": "máximo de 72 bytes"})

// CustoSenha é o custo bcrypt usado em HashSenha.
var CustoSenha = bcrypt.DefaultCost

func HashSenha(senha string) (string, error) {
	if len(senha) > tamanhoMaximoSenha {
		return "", ErrSenhaLonga
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), CustoSenha)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrSenhaLonga
	}
	return string(hash), err
}

// CheckSenha é falso para hash vazio ou malformado.
func CheckSenha(hash, senha string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(senha)) == nil
}

// GerarSenhaTemporaria gera uma senha aleatória de 12 caracteres
// (redefinição e criação de usuário sem senha).
func GerarSenhaTemporaria() (string, error) {
	result := make([]byte, 12)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(senhaChars))))
		if err != nil {
			return "", err
		}
		result[i] = senhaChars[num.Int64()]
	}
	return string(result), nil
}
