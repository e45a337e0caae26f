package ledger

import (
	"fmt"
	"strings"
)

// ClientID identifies a client account
type ClientID uint16

// TransactionID identifies a transaction within a single run
type TransactionID uint32

// TransactionType represents the type of a ledger transaction
type TransactionType string

const (
	// Deposit credits the client's available funds
	Deposit TransactionType = "deposit"
	// Withdrawal debits the client's available funds
	Withdrawal TransactionType = "withdrawal"
	// Dispute holds the funds of a previous transaction
	Dispute TransactionType = "dispute"
	// Resolve releases the funds held by a dispute
	Resolve TransactionType = "resolve"
	// Chargeback removes the funds held by a dispute and locks the account
	Chargeback TransactionType = "chargeback"
)

// TransactionTypes lists every supported transaction type
var TransactionTypes = []TransactionType{Deposit, Withdrawal, Dispute, Resolve, Chargeback}

// ParseTransactionType converts a type name, ignoring case and surrounding spaces
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case Deposit, Withdrawal, Dispute, Resolve, Chargeback:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// CarriesAmount reports whether transactions of this type must have an amount
func (t TransactionType) CarriesAmount() bool {
	return t == Deposit || t == Withdrawal
}

// Transaction is a single record of the input stream.
// Dispute, Resolve and Chargeback reference an earlier transaction by ID
// and carry no amount of their own.
type Transaction struct {
	Type   TransactionType `json:"type"`
	Client ClientID        `json:"client"`
	ID     TransactionID   `json:"tx"`
	Amount *Currency       `json:"amount,omitempty"`
}

// NewDeposit creates a deposit transaction
func NewDeposit(client ClientID, id TransactionID, amount Currency) Transaction {
	return Transaction{Type: Deposit, Client: client, ID: id, Amount: &amount}
}

// NewWithdrawal creates a withdrawal transaction
func NewWithdrawal(client ClientID, id TransactionID, amount Currency) Transaction {
	return Transaction{Type: Withdrawal, Client: client, ID: id, Amount: &amount}
}

// NewDispute creates a dispute referencing transaction id
func NewDispute(client ClientID, id TransactionID) Transaction {
	return Transaction{Type: Dispute, Client: client, ID: id}
}

// NewResolve creates a resolve referencing transaction id
func NewResolve(client ClientID, id TransactionID) Transaction {
	return Transaction{Type: Resolve, Client: client, ID: id}
}

// NewChargeback creates a chargeback referencing transaction id
func NewChargeback(client ClientID, id TransactionID) Transaction {
	return Transaction{Type: Chargeback, Client: client, ID: id}
}

func (t Transaction) String() string {
	amount := "-"
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return fmt.Sprintf("%s client=%d tx=%d amount=%s", t.Type, t.Client, t.ID, amount)
}

// storedTransaction is the account's copy of a deposit or withdrawal.
// underDispute is tracked here only and never appears in the input record.
type storedTransaction struct {
	Transaction
	underDispute bool
}
