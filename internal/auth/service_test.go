package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undergrid/stagehand/internal/config"
)

const testSecret = "thisisa32characterlongtestsecret!!"

func newTestService(t *testing.T) *hmacTokenService {
	t.Helper()
	svc, err := NewTokenService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	return svc.(*hmacTokenService)
}

func TestNewTokenServiceRejectsShortSecret(t *testing.T) {
	_, err := NewTokenService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)
}

func TestMintAndValidate(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Mint("operator", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(t)

	issued := time.Now().Add(-48 * time.Hour)
	svc.timeFunc = func() time.Time { return issued }
	token, err := svc.Mint("operator", time.Minute)
	require.NoError(t, err)

	svc.timeFunc = time.Now
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc := newTestService(t)
	other, err := NewTokenService(config.AuthConfig{
		JWTSecret: "anotherdifferent32charactersecret!",
	})
	require.NoError(t, err)

	token, err := other.Mint("operator", time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintZeroTTLUsesDefault(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Mint("operator", 0)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt, 5*time.Second)
}
