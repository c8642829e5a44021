package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kassa-app/kassa-backend/internal/websocket"
)

// mockJWTValidator returns a fixed workspace ID or error
type mockJWTValidator struct {
	workspaceID int32
	err         error
}

func (m *mockJWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.workspaceID, nil
}

func TestHandleWS_MissingToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	defer hub.Shutdown()
	handler := NewWebSocketHandler(hub, &mockJWTValidator{workspaceID: 1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleWS(c)
	if err == nil {
		t.Fatal("Expected an error for missing token")
	}

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", httpErr.Code)
	}
}

func TestHandleWS_InvalidToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	defer hub.Shutdown()
	handler := NewWebSocketHandler(hub, &mockJWTValidator{err: errors.New("bad token")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=bogus", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleWS(c)
	if err == nil {
		t.Fatal("Expected an error for invalid token")
	}

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", httpErr.Code)
	}
}

func TestCheckOrigin(t *testing.T) {
	hub := websocket.NewHub()
	defer hub.Shutdown()
	handler := NewWebSocketHandler(hub, &mockJWTValidator{workspaceID: 1}, []string{"https://app.example.com"})

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"no origin header", "", true},
		{"allowed origin", "https://app.example.com", true},
		{"unknown origin", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := handler.checkOrigin(req); got != tt.allowed {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.allowed)
			}
		})
	}
}
