package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/kassa-app/kassa-backend/internal/testutil"
)

// Helper to set up auth context without a workspace
func setupAuthContext(c echo.Context, auth0ID string, email, name, picture string) {
	setupAuthContextWithWorkspace(c, auth0ID, email, name, picture, 0)
}

// Helper to set up auth context with workspace ID
func setupAuthContextWithWorkspace(c echo.Context, auth0ID string, email, name, picture string, workspaceID int32) {
	customClaims := &middleware.CustomClaims{
		Email:   email,
		Name:    name,
		Picture: picture,
	}
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: customClaims,
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if workspaceID > 0 {
		ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, workspaceID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestCallback_NewUser(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, "auth0|newuser", "new@example.com", "New User", "")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if !response.IsNewUser {
		t.Error("Expected isNewUser to be true")
	}
	if response.User.Email != "new@example.com" {
		t.Errorf("Expected email new@example.com, got %s", response.User.Email)
	}
	if response.Workspace.ID == 0 {
		t.Error("Expected workspace to be created")
	}
}

func TestCallback_ExistingUser(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	handler := NewAuthHandler(authService)

	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|existing",
		Email:   "existing@example.com",
	}
	userRepo.AddUser(user)
	workspaceRepo.AddWorkspace(&domain.Workspace{
		ID:     1,
		UserID: user.ID,
		Name:   "existing's workspace",
	}, user.Auth0ID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, "auth0|existing", "existing@example.com", "", "")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.IsNewUser {
		t.Error("Expected isNewUser to be false")
	}
	if response.Workspace.ID != 1 {
		t.Errorf("Expected workspace ID 1, got %d", response.Workspace.ID)
	}
}

func TestCallback_MissingEmail(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, "auth0|noemail", "", "", "")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCallback_NoAuth(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestMe_Success(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	handler := NewAuthHandler(authService)

	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|me",
		Email:   "me@example.com",
	}
	userRepo.AddUser(user)
	workspaceRepo.AddWorkspace(&domain.Workspace{
		ID:     7,
		UserID: user.ID,
		Name:   "me's workspace",
	}, user.Auth0ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContextWithWorkspace(c, "auth0|me", "me@example.com", "", "", 7)

	err := handler.Me(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.User.Email != "me@example.com" {
		t.Errorf("Expected email me@example.com, got %s", response.User.Email)
	}
	if response.Workspace.ID != 7 {
		t.Errorf("Expected workspace ID 7, got %d", response.Workspace.ID)
	}
}

func TestLogout(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, "auth0|bye", "bye@example.com", "", "")

	err := handler.Logout(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}
