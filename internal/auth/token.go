// Package auth issues and verifies the signed tokens that gate the admin
// surface. Access tokens are short-lived bearers; refresh tokens carry a
// kind marker, live for days and travel only in an HTTP-only cookie.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshKind marks refresh tokens so an access token can never be replayed
// against the refresh endpoint.
const RefreshKind = "refresh"

// clockSkew is the tolerance applied to exp/iat during verification.
const clockSkew = 60 * time.Second

var (
	// ErrInvalidToken covers bad signatures, wrong signing methods and
	// malformed claims. Callers surface it identically to ErrExpiredToken
	// to avoid leaking which check failed.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken is returned when a token is past its expiry beyond
	// the clock-skew tolerance.
	ErrExpiredToken = errors.New("auth: expired token")
)

// Identity is the user information embedded in every token.
type Identity struct {
	Email     string
	Role      string
	FirstName string
	LastName  string
}

// Claims is the JWT payload for both token kinds. Kind is empty on access
// tokens and RefreshKind on refresh tokens.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Kind      string `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// Identity extracts the embedded user information from verified claims.
func (c *Claims) Identity() Identity {
	return Identity{Email: c.Email, Role: c.Role, FirstName: c.FirstName, LastName: c.LastName}
}

// TokenService signs and verifies HS256 tokens with a symmetric secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a token service. TTLs default to 30 minutes and
// 7 days when non-positive.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Test helper.
func (s *TokenService) SetClock(now func() time.Time) { s.now = now }

// RefreshTTL reports the refresh token lifetime, used to size the cookie.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs a short-lived access token for the identity.
func (s *TokenService) IssueAccess(id Identity) (string, error) {
	return s.sign(id, "", s.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the identity. The raw
// string must only ever be set as an HTTP-only cookie, never returned in a
// response body.
func (s *TokenService) IssueRefresh(id Identity) (string, error) {
	return s.sign(id, RefreshKind, s.refreshTTL)
}

func (s *TokenService) sign(id Identity, kind string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Email:     id.Email,
		Role:      id.Role,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti guarantees rotation always yields a fresh token string
			// even when two issues land in the same second.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify validates signature and expiry with clock-skew tolerance and
// returns the claims. Only HS256 is accepted.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh verifies a refresh token and rotates it into a brand-new
// access+refresh pair. Any still-valid refresh token may be exchanged;
// there is no single-use marking.
func (s *TokenService) Refresh(raw string) (access, refresh string, id Identity, err error) {
	claims, err := s.Verify(raw)
	if err != nil {
		return "", "", Identity{}, err
	}
	if claims.Kind != RefreshKind {
		return "", "", Identity{}, ErrInvalidToken
	}
	id = claims.Identity()
	if access, err = s.IssueAccess(id); err != nil {
		return "", "", Identity{}, err
	}
	if refresh, err = s.IssueRefresh(id); err != nil {
		return "", "", Identity{}, err
	}
	return access, refresh, id, nil
}
