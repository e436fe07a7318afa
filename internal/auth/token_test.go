package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{
	Email:     "a@b.com",
	Role:      "team",
	FirstName: "Ada",
	LastName:  "Lovelace",
}

func newTestService(at func() time.Time) *TokenService {
	s := NewTokenService("test-secret", 30*time.Minute, 7*24*time.Hour)
	if at != nil {
		s.SetClock(at)
	}
	return s
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := newTestService(nil)
	tok, err := s.IssueAccess(testIdentity)
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, claims.Identity())
	assert.Empty(t, claims.Kind)
}

func TestRefreshTokenCarriesKind(t *testing.T) {
	s := newTestService(nil)
	tok, err := s.IssueRefresh(testIdentity)
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, RefreshKind, claims.Kind)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	s := newTestService(nil)
	tok, err := s.IssueAccess(testIdentity)
	require.NoError(t, err)

	other := NewTokenService("different-secret", 30*time.Minute, 7*24*time.Hour)
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiryWithLeeway(t *testing.T) {
	issued := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	s := newTestService(func() time.Time { return now })

	tok, err := s.IssueAccess(testIdentity)
	require.NoError(t, err)

	// 30m30s after issue: past exp but inside the 60s skew tolerance.
	now = issued.Add(30*time.Minute + 30*time.Second)
	_, err = s.Verify(tok)
	assert.NoError(t, err)

	// 32m after issue: beyond the tolerance.
	now = issued.Add(32 * time.Minute)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshRotatesUnconditionally(t *testing.T) {
	s := newTestService(nil)
	orig, err := s.IssueRefresh(testIdentity)
	require.NoError(t, err)

	access, rotated, id, err := s.Refresh(orig)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, id)
	assert.NotEqual(t, orig, rotated, "rotation must mint a new refresh token")
	assert.NotEqual(t, orig, access)

	// No single-use marking: the original token still refreshes.
	_, again, _, err := s.Refresh(orig)
	require.NoError(t, err)
	assert.NotEqual(t, rotated, again)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	s := newTestService(nil)
	access, err := s.IssueAccess(testIdentity)
	require.NoError(t, err)

	_, _, _, err = s.Refresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueSameSecondYieldsDistinctTokens(t *testing.T) {
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(func() time.Time { return fixed })

	a, err := s.IssueRefresh(testIdentity)
	require.NoError(t, err)
	b, err := s.IssueRefresh(testIdentity)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
