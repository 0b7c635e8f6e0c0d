package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtract(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	got, err := svc.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), got)
}

func TestExtractRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").ExtractUserID(token)
	assert.Error(t, err)
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret").ExtractUserID("не-токен")
	assert.Error(t, err)
}
