package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RemoteVerifier pergunta ao Supabase Auth (GET /auth/v1/user) a quem o
// token pertence. Serve para projetos cujo segredo JWT não pode ficar com a API.
type RemoteVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteVerifier cria o verificador para o projeto em baseURL. Com client
// nil usa http.DefaultClient.
func NewRemoteVerifier(baseURL, apiKey string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verify devolve ErrInvalidCredential quando o provedor recusa o token e
// ErrUnavailable para qualquer outra falha na chamada.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Account{}, ErrInvalidCredential
	case resp.StatusCode != http.StatusOK:
		return Account{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var user remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return Account{}, fmt.Errorf("%w: resposta inválida: %v", ErrUnavailable, err)
	}
	if user.ID == "" {
		return Account{}, ErrInvalidCredential
	}
	return Account{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
