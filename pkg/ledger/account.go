package ledger

import (
	"fmt"
)

// AccountSnapshot is a read-only view of an account's balances
type AccountSnapshot struct {
	Client    ClientID `json:"client"`
	Available Currency `json:"available"`
	Held      Currency `json:"held"`
	Total     Currency `json:"total"`
	Locked    bool     `json:"locked"`
}

// Account holds a client's balances and the deposits and withdrawals it has seen.
//
// Every successfully applied transaction keeps total == available + held.
// An Account is not safe for concurrent use.
type Account struct {
	id           ClientID
	available    Currency
	held         Currency
	total        Currency
	locked       bool
	transactions map[TransactionID]*storedTransaction
}

// NewAccount creates an empty, unlocked account
func NewAccount(id ClientID) *Account {
	return &Account{
		id:           id,
		available:    Zero(),
		held:         Zero(),
		total:        Zero(),
		transactions: make(map[TransactionID]*storedTransaction),
	}
}

// ID returns the owning client
func (a *Account) ID() ClientID {
	return a.id
}

// Locked reports whether a chargeback has frozen the account
func (a *Account) Locked() bool {
	return a.locked
}

// Snapshot returns the current balances
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		Client:    a.id,
		Available: a.available,
		Held:      a.held,
		Total:     a.total,
		Locked:    a.locked,
	}
}

// Apply runs tx through the account's state machine.
//
// A rejected transaction returns an error wrapping ErrAccountLocked,
// ErrMalformedTransaction or ErrInsufficientFunds and leaves the account
// untouched. Disputes, resolves and chargebacks that reference an unknown
// transaction, or one in the wrong dispute state, are no-ops and return nil.
func (a *Account) Apply(tx Transaction) error {
	if a.locked {
		return a.reject(tx, ErrAccountLocked)
	}

	switch tx.Type {
	case Deposit:
		return a.deposit(tx)
	case Withdrawal:
		return a.withdraw(tx)
	case Dispute:
		a.dispute(tx)
	case Resolve:
		a.resolve(tx)
	case Chargeback:
		a.chargeback(tx)
	default:
		return a.reject(tx, fmt.Errorf("%w: unknown type %q", ErrMalformedTransaction, tx.Type))
	}
	return nil
}

func (a *Account) deposit(tx Transaction) error {
	if tx.Amount == nil {
		return a.reject(tx, fmt.Errorf("%w: deposit without amount", ErrMalformedTransaction))
	}
	if !a.store(tx) {
		return nil
	}

	a.available = a.available.Add(*tx.Amount)
	a.total = a.total.Add(*tx.Amount)
	return nil
}

func (a *Account) withdraw(tx Transaction) error {
	if tx.Amount == nil {
		return a.reject(tx, fmt.Errorf("%w: withdrawal without amount", ErrMalformedTransaction))
	}
	if _, seen := a.transactions[tx.ID]; seen {
		return nil
	}
	if a.available.Sub(*tx.Amount).IsNegative() {
		return a.reject(tx, fmt.Errorf("%w: %s requested, %s available", ErrInsufficientFunds, tx.Amount, a.available))
	}

	a.store(tx)
	a.available = a.available.Sub(*tx.Amount)
	a.total = a.total.Sub(*tx.Amount)
	return nil
}

func (a *Account) dispute(tx Transaction) {
	stored, ok := a.transactions[tx.ID]
	if !ok || stored.underDispute {
		return
	}

	amount := *stored.Amount
	a.held = a.held.Add(amount)
	a.available = a.available.Sub(amount)
	stored.underDispute = true
}

func (a *Account) resolve(tx Transaction) {
	stored, ok := a.transactions[tx.ID]
	if !ok || !stored.underDispute {
		return
	}

	amount := *stored.Amount
	a.held = a.held.Sub(amount)
	a.available = a.available.Add(amount)
	stored.underDispute = false
}

func (a *Account) chargeback(tx Transaction) {
	stored, ok := a.transactions[tx.ID]
	if !ok || !stored.underDispute {
		return
	}

	amount := *stored.Amount
	a.held = a.held.Sub(amount)
	a.total = a.total.Sub(amount)
	a.locked = true
	stored.underDispute = false
}

// store records tx under its id; the first write wins.
// It reports whether tx was stored.
func (a *Account) store(tx Transaction) bool {
	if _, seen := a.transactions[tx.ID]; seen {
		return false
	}
	// copy the amount so the caller's pointer cannot alter the stored record
	amount := *tx.Amount
	tx.Amount = &amount
	a.transactions[tx.ID] = &storedTransaction{Transaction: tx}
	return true
}

func (a *Account) reject(tx Transaction, err error) error {
	return fmt.Errorf("client %d: %s tx %d rejected: %w", a.id, tx.Type, tx.ID, err)
}
