package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/kassa-app/kassa-backend/internal/testutil"
)

func newAccountTestEnv() (*AccountHandler, *testutil.MockAccountRepository) {
	accountRepo := testutil.NewMockAccountRepository()
	accountService := service.NewAccountService(accountRepo)
	return NewAccountHandler(accountService), accountRepo
}

func TestCreateAccount_Success(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountTestEnv()

	body := `{"name":"Checking","accountType":"asset","currency":"USD","initialBalance":"250.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.Name != "Checking" {
		t.Errorf("Expected name Checking, got %s", response.Name)
	}
	if response.AccountType != "asset" {
		t.Errorf("Expected account type asset, got %s", response.AccountType)
	}
	if response.Currency != "USD" {
		t.Errorf("Expected currency USD, got %s", response.Currency)
	}
	if response.Balance != "250.00" {
		t.Errorf("Expected balance 250.00, got %s", response.Balance)
	}
}

func TestCreateAccount_Defaults(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountTestEnv()

	body := `{"name":"Wallet"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.AccountType != "asset" {
		t.Errorf("Expected default account type asset, got %s", response.AccountType)
	}
	if response.Currency != "EUR" {
		t.Errorf("Expected default currency EUR, got %s", response.Currency)
	}
	if response.Balance != "0.00" {
		t.Errorf("Expected default balance 0.00, got %s", response.Balance)
	}
}

func TestCreateAccount_MissingName(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountTestEnv()

	body := `{"name":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateAccount_InvalidType(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountTestEnv()

	body := `{"name":"Weird","accountType":"crypto"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetAccounts(t *testing.T) {
	e := echo.New()
	handler, accountRepo := newAccountTestEnv()

	accountRepo.AddAccount(&domain.Account{ID: 1, WorkspaceID: 1, Name: "Checking", AccountType: domain.AccountTypeAsset, Currency: "EUR", Balance: decimal.NewFromInt(100)})
	accountRepo.AddAccount(&domain.Account{ID: 2, WorkspaceID: 1, Name: "Savings", AccountType: domain.AccountTypeAsset, Currency: "EUR", Balance: decimal.NewFromInt(500)})
	accountRepo.AddAccount(&domain.Account{ID: 3, WorkspaceID: 2, Name: "Other workspace", AccountType: domain.AccountTypeAsset, Currency: "EUR", Balance: decimal.Zero})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.GetAccounts(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(response) != 2 {
		t.Errorf("Expected 2 accounts, got %d", len(response))
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/42", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.GetAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestUpdateAccount(t *testing.T) {
	e := echo.New()
	handler, accountRepo := newAccountTestEnv()

	accountRepo.AddAccount(&domain.Account{ID: 1, WorkspaceID: 1, Name: "Old name", AccountType: domain.AccountTypeAsset, Currency: "EUR", Balance: decimal.Zero})

	body := `{"name":"New name"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/accounts/1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.UpdateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.Name != "New name" {
		t.Errorf("Expected name to be updated, got %s", response.Name)
	}
}

func TestDeleteAccount(t *testing.T) {
	e := echo.New()
	handler, accountRepo := newAccountTestEnv()

	accountRepo.AddAccount(&domain.Account{ID: 1, WorkspaceID: 1, Name: "Doomed", AccountType: domain.AccountTypeAsset, Currency: "EUR", Balance: decimal.Zero})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "", "", 1)

	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}
