package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/KromaEnergia/api-controle-clube/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims do access token.
type Claims struct {
	UserID uint        `json:"userId"`
	Role   models.Role `json:"role"`
	// OrigIat é o iat do login; a janela de refresh conta a partir dele.
	OrigIat int64 `json:"orig_iat"`
	jwt.RegisteredClaims
}

// TokenService é o token store: emite, valida, renova e revoga access tokens.
type TokenService struct {
	keys       *KeySet
	blacklist  Blacklist
	ttl        time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	grace      time.Duration
	issuer     string
	audience   string
	now        func() time.Time
}

type TokenOption func(*TokenService)

// WithClock injeta o relógio (testes).
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(keys *KeySet, blacklist Blacklist, cfg config.AuthConfig, opts ...TokenOption) *TokenService {
	s := &TokenService{
		keys:       keys,
		blacklist:  blacklist,
		ttl:        cfg.TTL,
		refreshTTL: cfg.RefreshTTL,
		leeway:     cfg.Leeway,
		grace:      cfg.BlacklistGrace,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = time.Hour
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Keys() *KeySet { return s.keys }

// Emitir gera um token novo para o usuário (login).
func (s *TokenService) Emitir(u *models.Usuario) (string, *Claims, error) {
	return s.emitir(u.ID, u.Role, s.now().Unix())
}

func (s *TokenService) emitir(userID uint, role models.Role, origIat int64) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID:  userID,
		Role:    role,
		OrigIat: origIat,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        uuid.NewString(),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	signed, err := s.keys.sign(claims)
	if err != nil {
		return "", nil, ErrJWT.Wrapping(err)
	}
	return signed, claims, nil
}

func (s *TokenService) parse(raw string, opts ...jwt.ParserOption) (*Claims, error) {
	base := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.keys.Method().Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	parser := jwt.NewParser(append(base, opts...)...)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, s.keys.keyFunc)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tok.Valid {
		return nil, ErrTokenInvalido
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpirado.Wrapping(err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ErrTokenInvalido.Wrapping(err)
	default:
		return ErrJWT.Wrapping(err)
	}
}

// Validar confere assinatura, iss, aud, exp (com leeway) e a blacklist.
func (s *TokenService) Validar(ctx context.Context, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}
	claims, err := s.parse(raw, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.checarBlacklist(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// LerSemExpiracao confere assinatura, iss e aud mas ignora exp/nbf.
func (s *TokenService) LerSemExpiracao(raw string) (*Claims, error) {
	claims, err := s.parse(raw, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrTokenInvalido
	}
	if s.audience != "" && !audienceContains(claims.Audience, s.audience) {
		return nil, ErrTokenInvalido
	}
	if claims.ExpiresAt == nil {
		return nil, ErrTokenInvalido
	}
	return claims, nil
}

func (s *TokenService) checarBlacklist(ctx context.Context, claims *Claims) error {
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}
	revogado, err := s.blacklist.Revogado(ctx, claims.ID, s.now())
	if err != nil {
		return ErrJWT.Wrapping(err)
	}
	if revogado {
		return ErrTokenRevogado
	}
	return nil
}

// Renovar emite um token novo com a mesma identidade e revoga o antigo com
// a janela de tolerância configurada. Aceita token expirado enquanto a
// janela de refresh (a partir do login) não passou.
func (s *TokenService) Renovar(ctx context.Context, raw string) (string, *Claims, error) {
	claims, err := s.LerSemExpiracao(raw)
	if err != nil {
		return "", nil, err
	}
	if err := s.checarBlacklist(ctx, claims); err != nil {
		return "", nil, err
	}

	origIat := claims.OrigIat
	if origIat == 0 && claims.IssuedAt != nil {
		origIat = claims.IssuedAt.Unix()
	}
	if s.refreshTTL > 0 && s.now().After(time.Unix(origIat, 0).Add(s.refreshTTL)) {
		return "", nil, ErrTokenExpirado
	}

	novo, novoClaims, err := s.emitir(claims.UserID, claims.Role, origIat)
	if err != nil {
		return "", nil, err
	}
	if s.blacklist != nil {
		if err := s.blacklist.Revogar(ctx, claims.ID, claims.ExpiresAt.Time, s.now().Add(s.grace)); err != nil {
			return "", nil, ErrJWT.Wrapping(err)
		}
	}
	return novo, novoClaims, nil
}

// Revogar invalida o token imediatamente (logout).
func (s *TokenService) Revogar(ctx context.Context, claims *Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	exp := s.now()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return s.blacklist.Revogar(ctx, claims.ID, exp, s.now())
}

// helper: verifica se a audience contém o valor esperado
func audienceContains(a jwt.ClaimStrings, want string) bool {
	for _, v := range a {
		if v == want {
			return true
		}
	}
	return false
}
