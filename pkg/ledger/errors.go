package ledger

import "errors"

var (
	// ErrAccountLocked is returned for any transaction on an account frozen by a chargeback
	ErrAccountLocked = errors.New("account is locked")
	// ErrMalformedTransaction is returned when a deposit or withdrawal has no amount
	ErrMalformedTransaction = errors.New("malformed transaction")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the available funds
	ErrInsufficientFunds = errors.New("insufficient funds")
)
