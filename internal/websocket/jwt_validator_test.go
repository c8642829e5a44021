package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockWorkspaceLookup is a test double for WorkspaceLookup
type mockWorkspaceLookup struct {
	workspaceID int32
	err         error
}

func (m *mockWorkspaceLookup) GetWorkspaceByAuth0ID(auth0ID string) (workspaceID int32, err error) {
	return m.workspaceID, m.err
}

func TestWorkspaceLookup_Interface(t *testing.T) {
	var _ WorkspaceLookup = (*mockWorkspaceLookup)(nil)
}

func TestValidatorSentinels(t *testing.T) {
	assert.Equal(t, "workspace not found", ErrWorkspaceNotFound.Error())
	assert.Equal(t, "invalid token", ErrInvalidToken.Error())
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	assert.NoError(t, claims.Validate(context.Background()))
}

func TestNewAuth0JWTValidator_EmptyDomain(t *testing.T) {
	lookup := &mockWorkspaceLookup{workspaceID: 1}

	// URL parsing is lenient, an empty domain still constructs
	validator, err := NewAuth0JWTValidator("", "audience", lookup)
	assert.NoError(t, err)
	assert.NotNil(t, validator)
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	lookup := &mockWorkspaceLookup{workspaceID: 1}

	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.kassa.app", lookup)
	assert.NoError(t, err)
	assert.NotNil(t, validator)
	assert.NotNil(t, validator.validator)
	assert.Equal(t, lookup, validator.workspaceLookup)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	lookup := &mockWorkspaceLookup{workspaceID: 1}

	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.kassa.app", lookup)
	assert.NoError(t, err)

	workspaceID, err := validator.ValidateToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
	assert.Equal(t, int32(0), workspaceID)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
