package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/willjrcristo/refresh-api/internal/identity"
)

// RequireAccount valida o token bearer de cada requisição e coloca a conta
// autenticada no contexto. Sem conta válida a requisição não chega ao handler.
func RequireAccount(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, identity.ErrMissingCredential.Error())
				return
			}

			acc, err := verifier.Verify(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, identity.ErrMissingCredential):
					respondWithError(w, http.StatusUnauthorized, identity.ErrMissingCredential.Error())
				case errors.Is(err, identity.ErrInvalidCredential):
					respondWithError(w, http.StatusUnauthorized, identity.ErrInvalidCredential.Error())
				default:
					slog.Error("Falha ao verificar o token", "error", err)
					respondWithError(w, http.StatusInternalServerError, "Erro ao verificar autenticação")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithAccount(r.Context(), acc)))
		})
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// accountID devolve o id da conta colocada no contexto por RequireAccount.
func accountID(r *http.Request) (string, bool) {
	acc, ok := identity.FromContext(r.Context())
	if !ok || acc.ID == "" {
		return "", false
	}
	return acc.ID, true
}
