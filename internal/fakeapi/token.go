package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of tokens issued by the fake backend.
type Claims struct {
	UserID  int64  `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for a as if it had just passed OTP.
func (s *Server) IssueToken(a Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(a)
}

func (s *Server) issueTokenLocked(a Account) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  a.ID,
		Email:   a.Email,
		IsAdmin: a.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   a.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// authenticate verifies the bearer token and returns its claims with 200,
// or a 401 status.
func (s *Server) authenticate(r *http.Request) (*Claims, int) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, http.StatusUnauthorized
	}

	s.mu.Lock()
	revoked := s.revoked[raw]
	now := s.now
	s.mu.Unlock()
	if revoked {
		return nil, http.StatusUnauthorized
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, http.StatusUnauthorized
	}
	return claims, http.StatusOK
}
