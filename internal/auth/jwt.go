package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
	"github.com/rentspace/messaging/internal/transport"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token format")
	errInvalidToken = errors.New("invalid token")
)

// Verifier checks HS256 bearer tokens and resolves the caller from "sub".
type Verifier struct {
	Secret   string
	Issuer   string
	Audience string
}

func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{Secret: secret, Issuer: issuer, Audience: audience}
}

// ParseToken returns the normalized user id carried by tokenString.
func (v *Verifier) ParseToken(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	sub := domain.NormalizeUserID(claims.Subject)
	if sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller in the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractToken(r)
		if err != nil {
			transport.WriteError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		sub, err := v.ParseToken(tokenString)
		if err != nil {
			observability.GetLogger(r.Context()).Debug("jwt rejected", zap.Error(err))
			transport.WriteError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(InjectUserID(r.Context(), sub)))
	})
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errTokenFormat
	}

	return parts[1], nil
}
