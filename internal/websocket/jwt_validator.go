package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrWorkspaceNotFound is returned when the subject has no workspace
var ErrWorkspaceNotFound = errors.New("workspace not found")

// WorkspaceLookup resolves an Auth0 subject to its workspace.
type WorkspaceLookup interface {
	GetWorkspaceByAuth0ID(auth0ID string) (workspaceID int32, err error)
}

// CustomClaims is the empty claim set for WebSocket tokens
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator authenticates WebSocket upgrade requests. Browsers cannot
// set headers on the upgrade, so the token arrives as a query parameter and
// is validated here instead of in the HTTP middleware.
type Auth0JWTValidator struct {
	validator       *validator.Validator
	workspaceLookup WorkspaceLookup
}

// NewAuth0JWTValidator builds a validator against an Auth0 tenant
func NewAuth0JWTValidator(domain, audience string, workspaceLookup WorkspaceLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator:       jwtValidator,
		workspaceLookup: workspaceLookup,
	}, nil
}

// ValidateToken checks the token and returns the workspace it belongs to.
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (workspaceID int32, err error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	auth0ID := validatedClaims.RegisteredClaims.Subject

	wsID, err := v.workspaceLookup.GetWorkspaceByAuth0ID(auth0ID)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}

	return wsID, nil
}
