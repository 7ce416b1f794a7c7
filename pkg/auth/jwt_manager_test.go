package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_ValidateRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	userID := uuid.New()
	token, err := m.Generate(userID.String())
	require.NoError(t, err)

	got, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	_, err := m.Validate("not-a-token")
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Hour)
	verifier := NewJWTManager("secret-b", time.Hour)

	token, err := issuer.Generate(uuid.NewString())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token, err := m.Generate(uuid.NewString())
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsNonUUIDSubject(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("service-account")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}
