package domain

import (
	"testing"
	"time"
)

func TestTransactionTypeValid(t *testing.T) {
	tests := []struct {
		name     string
		txType   TransactionType
		expected bool
	}{
		{"income", TransactionTypeIncome, true},
		{"expense", TransactionTypeExpense, true},
		{"transfer", TransactionTypeTransfer, true},
		{"debt", TransactionTypeDebt, true},
		{"empty", TransactionType(""), false},
		{"unknown", TransactionType("refund"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.txType.Valid() != tt.expected {
				t.Errorf("Valid() for %q = %v, want %v", tt.txType, tt.txType.Valid(), tt.expected)
			}
		})
	}
}

func TestTransactionTypeValuesMatchDatabaseConstraints(t *testing.T) {
	// These values must match the CHECK constraint in the database:
	// CHECK (type IN ('income', 'expense', 'transfer', 'debt'))
	dbConstraintValues := []string{"income", "expense", "transfer", "debt"}
	for _, dbVal := range dbConstraintValues {
		if !TransactionType(dbVal).Valid() {
			t.Errorf("Database constraint value %q not accepted by TransactionType", dbVal)
		}
	}
}

func TestTransactionScheduled(t *testing.T) {
	tx := Transaction{}
	if tx.Scheduled() {
		t.Error("Expected transaction without SourceID to be decoupled")
	}

	occ := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	tx.SourceID = int32Ptr(3)
	tx.OccurrenceDate = &occ
	if !tx.Scheduled() {
		t.Error("Expected transaction with SourceID to be scheduled")
	}
}
