package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternalError     = errors.New("internal error")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")

	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRuleNotFound        = errors.New("recurring rule not found")
	ErrDebtEntryNotFound   = errors.New("debt entry not found")
	ErrReceiptNotFound     = errors.New("receipt not found")

	ErrInvalidTransfer        = errors.New("transfer requires a distinct destination account")
	ErrInvalidRecurrenceRule  = errors.New("invalid recurrence rule")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrOccurrenceSkipped      = errors.New("occurrence was skipped")

	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name exceeds maximum length")
	ErrNotesTooLong  = errors.New("notes exceed maximum length")
	ErrAmountInvalid = errors.New("amount must be positive")

	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidCurrency    = errors.New("currency must be a three-letter code")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxRuleNameLength    = 255
	MaxNameLength        = 255
	MaxNotesLength       = 1000
)
