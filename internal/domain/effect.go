package domain

import "sort"

// EffectsOf returns the balance deltas a transaction applies when posted.
// Scheduled rows carry no effect until paid. Debt rows are mirrored into
// the debt ledger and never touch account balances.
func EffectsOf(t *Transaction) ([]BalanceDelta, error) {
	if t.Scheduled() {
		return nil, nil
	}
	switch t.Type {
	case TransactionTypeIncome:
		return []BalanceDelta{{AccountID: t.AccountID, Amount: t.Amount}}, nil
	case TransactionTypeExpense:
		return []BalanceDelta{{AccountID: t.AccountID, Amount: t.Amount.Neg()}}, nil
	case TransactionTypeTransfer:
		if t.ToAccountID == nil || *t.ToAccountID == t.AccountID {
			return nil, ErrInvalidTransfer
		}
		return []BalanceDelta{
			{AccountID: t.AccountID, Amount: t.Amount.Neg()},
			{AccountID: *t.ToAccountID, Amount: t.Amount},
		}, nil
	case TransactionTypeDebt:
		return nil, nil
	default:
		return nil, ErrInvalidTransactionType
	}
}

// ReverseOf negates every delta, undoing a previously applied effect set.
// Applying a set and then its reverse leaves balances unchanged.
func ReverseOf(deltas []BalanceDelta) []BalanceDelta {
	if len(deltas) == 0 {
		return nil
	}
	reversed := make([]BalanceDelta, len(deltas))
	for i, d := range deltas {
		reversed[i] = BalanceDelta{AccountID: d.AccountID, Amount: d.Amount.Neg()}
	}
	return reversed
}

// MergeDeltas sums deltas per account and drops accounts whose total is
// zero. The result is ordered by account ID so multi-account adjustments
// always lock rows in the same order.
func MergeDeltas(sets ...[]BalanceDelta) []BalanceDelta {
	totals := make(map[int32]BalanceDelta)
	for _, set := range sets {
		for _, d := range set {
			entry, ok := totals[d.AccountID]
			if !ok {
				entry = BalanceDelta{AccountID: d.AccountID}
			}
			entry.Amount = entry.Amount.Add(d.Amount)
			totals[d.AccountID] = entry
		}
	}

	merged := make([]BalanceDelta, 0, len(totals))
	for _, entry := range totals {
		if entry.Amount.IsZero() {
			continue
		}
		merged = append(merged, entry)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].AccountID < merged[j].AccountID })
	return merged
}
