package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier valida localmente os access tokens do Supabase, assinados com
// HS256 e o segredo JWT do projeto.
type JWTVerifier struct {
	secret   []byte
	audience string
}

// NewJWTVerifier cria o verificador. Com audience vazio a claim aud não é
// conferida.
func NewJWTVerifier(secret, audience string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("segredo JWT não configurado")
	}
	return &JWTVerifier{secret: []byte(secret), audience: audience}, nil
}

// Verify confere assinatura, expiração e audiência, e usa a claim sub como
// identificador da conta.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrMissingCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		slog.Debug("JWT recusado", "error", err)
		return Account{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Account{}, fmt.Errorf("%w: claim sub ausente", ErrInvalidCredential)
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return Account{ID: sub, Email: email, Role: role}, nil
}
