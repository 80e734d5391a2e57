package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type contextKey string

const credentialsKey contextKey = "basic_credentials"

var (
	ErrNoAuthHeader    = errors.New("no authorization header")
	ErrWrongAuthHeader = errors.New("authorization header is not basic auth")
)

// Credentials are the Basic auth username and password a request
// arrived with. They are carried as-is; verification belongs to the
// payment backend, which holds the secrets shared with the provider.
type Credentials struct {
	Username string
	Password string
}

// BasicCredentials extracts Basic auth credentials from a request.
func BasicCredentials(r *http.Request) (Credentials, error) {
	if r.Header.Get("Authorization") == "" {
		return Credentials{}, ErrNoAuthHeader
	}
	username, password, ok := r.BasicAuth()
	if !ok {
		return Credentials{}, ErrWrongAuthHeader
	}
	return Credentials{Username: username, Password: password}, nil
}

// RequireBasicAuth rejects requests without parseable Basic auth
// credentials: 401 with a challenge when the header is missing, 403
// when it is malformed. Parsed credentials go into the request context
// for the handler to relay.
func RequireBasicAuth(realm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, err := BasicCredentials(r)
			switch {
			case errors.Is(err, ErrNoAuthHeader):
				w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			case err != nil:
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), credentialsKey, creds)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCredentials returns the credentials stored by RequireBasicAuth.
func GetCredentials(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey).(Credentials)
	return creds, ok
}
