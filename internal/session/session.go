package session

import (
	"net/http"
	"time"

	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
)

// Notes is the free-form payment context stashed alongside the
// transaction, mirrored into the backend transaction's notes field.
type Notes struct {
	PayRequest map[string]any `json:"pay_request,omitempty"`
	IssuerKey  string         `json:"issuer_key,omitempty"`
}

// Session is the per-buyer state that survives the redirect out to the
// provider and back. It binds the provider's callbacks to the one
// transaction this browser started.
type Session struct {
	TransactionID string
	Notes         Notes
}

type claims struct {
	TransactionID string `json:"trans_id"`
	Notes         Notes  `json:"notes"`
	jwt.RegisteredClaims
}

// Store signs sessions into a cookie. No server-side state is kept;
// the signature is what binds the cookie to this deployment.
type Store struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
}

func NewStore(cfg *config.SessionConfig) *Store {
	return &Store{
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
	}
}

// Read returns the session carried by the request, or nil when the
// cookie is absent, tampered with or expired. Callers treat nil as
// "no active transaction".
func (s *Store) Read(r *http.Request) *Session {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil
	}

	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	return &Session{TransactionID: c.TransactionID, Notes: c.Notes}
}

// Write signs the session into the response cookie.
func (s *Store) Write(w http.ResponseWriter, sess *Session) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		TransactionID: sess.TransactionID,
		Notes:         sess.Notes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
