// Package ledger implements per-client account ledgers driven by a stream
// of deposit, withdrawal, dispute, resolve and chargeback transactions.
package ledger

import (
	"sort"
)

// Ledger routes transactions to client accounts, creating each account on
// its first reference. A Ledger is scoped to one run and is not safe for
// concurrent use.
type Ledger struct {
	accounts map[ClientID]*Account
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		accounts: make(map[ClientID]*Account),
	}
}

// Submit applies tx to the account of tx.Client and returns the account's result unchanged
func (l *Ledger) Submit(tx Transaction) error {
	account, ok := l.accounts[tx.Client]
	if !ok {
		account = NewAccount(tx.Client)
		l.accounts[tx.Client] = account
	}
	return account.Apply(tx)
}

// Account returns the snapshot of a single client, if known
func (l *Ledger) Account(client ClientID) (AccountSnapshot, bool) {
	account, ok := l.accounts[client]
	if !ok {
		return AccountSnapshot{}, false
	}
	return account.Snapshot(), true
}

// Accounts returns a snapshot of every known account.
// The slice is ordered by client id, but callers should not rely on it.
func (l *Ledger) Accounts() []AccountSnapshot {
	snapshots := make([]AccountSnapshot, 0, len(l.accounts))
	for _, account := range l.accounts {
		snapshots = append(snapshots, account.Snapshot())
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Client < snapshots[j].Client
	})
	return snapshots
}

// Len returns the number of known accounts
func (l *Ledger) Len() int {
	return len(l.accounts)
}
