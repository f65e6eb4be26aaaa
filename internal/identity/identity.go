// Package identity verifica as credenciais bearer emitidas pelo provedor de
// identidade externo (Supabase Auth). Nenhum estado de sessão é mantido aqui.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredential indica que a requisição não trouxe token.
	ErrMissingCredential = errors.New("token de autenticação necessário")
	// ErrInvalidCredential indica token malformado, expirado ou recusado.
	ErrInvalidCredential = errors.New("token inválido")
	// ErrUnavailable indica que o provedor de identidade não respondeu como esperado.
	ErrUnavailable = errors.New("provedor de identidade indisponível")
)

// Account é a identidade autenticada dona das subscrições.
type Account struct {
	ID    string
	Email string
	Role  string
}

// Verifier troca um token bearer pela conta que ele representa.
type Verifier interface {
	Verify(ctx context.Context, token string) (Account, error)
}

type contextKey struct{}

// WithAccount guarda a conta autenticada no contexto.
func WithAccount(ctx context.Context, acc Account) context.Context {
	return context.WithValue(ctx, contextKey{}, acc)
}

// FromContext devolve a conta autenticada, se houver.
func FromContext(ctx context.Context) (Account, bool) {
	acc, ok := ctx.Value(contextKey{}).(Account)
	return acc, ok
}
