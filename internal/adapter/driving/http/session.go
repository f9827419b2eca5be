package httphandler

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionCookie is the name of the wallet session cookie.
const sessionCookie = "zkcred_session"

// ErrNoSession indicates the request carries no valid wallet session.
var ErrNoSession = errors.New("no valid session")

// sessionClaims is the JWT payload for a connected wallet.
type sessionClaims struct {
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

// SessionManager signs and validates wallet session cookies. Tokens are
// HS256-signed JWTs carrying only the wallet address.
type SessionManager struct {
	key []byte
	ttl time.Duration
}

// NewSessionManager creates a SessionManager. An empty key is replaced with a
// random per-process key, which invalidates outstanding sessions on restart.
func NewSessionManager(key []byte, ttl time.Duration) *SessionManager {
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &SessionManager{key: key, ttl: ttl}
}

// Issue returns a signed session token for the wallet address.
func (m *SessionManager) Issue(walletAddress string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   walletAddress,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns the wallet address it names.
func (m *SessionManager) Validate(tokenString string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || !token.Valid || claims.WalletAddress == "" {
		return "", ErrNoSession
	}
	return claims.WalletAddress, nil
}

// SetCookie attaches the session token to the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// walletFromRequest extracts and validates the session cookie.
func (m *SessionManager) walletFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", ErrNoSession
	}
	return m.Validate(cookie.Value)
}
