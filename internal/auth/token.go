package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the operator token issued by the login service. The subject is the
// operator id.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	CanCommit bool   `json:"can_commit"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and turns it into a Session. A leading
// "Bearer " is accepted.
func ParseToken(secret []byte, raw string) (Session, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return Session{}, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	sid := claims.SessionID
	if sid == "" {
		sid = claims.Subject
	}
	return Session{
		ID:         sid,
		OperatorID: claims.Subject,
		Role:       claims.Role,
		CanCommit:  claims.CanCommit,
	}, nil
}

// IssueToken signs a token for s. The login service owns token issuance in
// production; this is used by tooling and tests.
func IssueToken(secret []byte, s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: s.ID,
		Role:      s.Role,
		CanCommit: s.CanCommit,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.OperatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
