package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/testutil"
)

func setupAuthServiceTest() (*AuthService, *testutil.MockUserRepository, *testutil.MockWorkspaceRepository) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)
	return service, userRepo, workspaceRepo
}

func TestBootstrap_FirstLoginCreatesUserAndWorkspace(t *testing.T) {
	service, _, _ := setupAuthServiceTest()

	result, err := service.Bootstrap("auth0|alice", "alice@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.IsNewUser {
		t.Error("Expected first login flagged as new user")
	}
	if result.User == nil || result.User.Auth0ID != "auth0|alice" {
		t.Fatal("Expected user provisioned from claims")
	}
	if result.Workspace == nil || result.Workspace.Name != "Personal" {
		t.Fatal("Expected a personal workspace attached")
	}
	if result.Workspace.UserID != result.User.ID {
		t.Error("Expected workspace owned by the new user")
	}
}

func TestBootstrap_SecondLoginReturnsExistingPair(t *testing.T) {
	service, _, _ := setupAuthServiceTest()

	first, err := service.Bootstrap("auth0|alice", "alice@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	second, err := service.Bootstrap("auth0|alice", "alice@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if second.IsNewUser {
		t.Error("Expected second login not flagged as new")
	}
	if second.User.ID != first.User.ID {
		t.Error("Expected the same user on repeat login")
	}
	if second.Workspace.ID != first.Workspace.ID {
		t.Error("Expected the same workspace on repeat login")
	}
}

func TestBootstrap_UserRepoFailure(t *testing.T) {
	service, userRepo, _ := setupAuthServiceTest()
	userRepo.CreateFn = func(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
		return nil, errors.New("db down")
	}

	_, err := service.Bootstrap("auth0|alice", "alice@example.com", nil, nil)
	if err == nil {
		t.Fatal("Expected error propagated")
	}
}

func TestGetWorkspaceByAuth0ID(t *testing.T) {
	service, userRepo, workspaceRepo := setupAuthServiceTest()
	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|bob", Email: "bob@example.com"}
	userRepo.AddUser(user)
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: 7, UserID: user.ID, Name: "Personal"}, user.Auth0ID)

	workspace, err := service.GetWorkspaceByAuth0ID("auth0|bob")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if workspace.ID != 7 {
		t.Errorf("Expected workspace 7, got %d", workspace.ID)
	}

	if _, err := service.GetWorkspaceByAuth0ID("auth0|nobody"); !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Errorf("Expected ErrWorkspaceNotFound, got %v", err)
	}
}
