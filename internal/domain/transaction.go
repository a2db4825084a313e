package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReference is recorded when no free-text reference is supplied.
const DefaultReference = "No Reference"

// Transaction is an immutable record of one money movement between two
// accounts. It is appended to exactly three histories (institution, sender,
// receiver) and never duplicated or mutated.
type Transaction struct {
	id        string
	from      *Account
	to        *Account
	amount    decimal.Decimal
	charge    decimal.Decimal
	timestamp time.Time
	reference string
}

func NewTransaction(id string, from, to *Account, amount, charge decimal.Decimal, timestamp time.Time, reference string) (*Transaction, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("transaction requires both accounts")
	}
	if from == to {
		return nil, fmt.Errorf("%w", ErrSelfConnection)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}
	if charge.IsNegative() {
		return nil, fmt.Errorf("charge must not be negative, got %s", charge)
	}
	if reference == "" {
		reference = DefaultReference
	}
	return &Transaction{
		id:        id,
		from:      from,
		to:        to,
		amount:    amount,
		charge:    charge,
		timestamp: timestamp,
		reference: reference,
	}, nil
}

func (t *Transaction) ID() string              { return t.id }
func (t *Transaction) From() *Account          { return t.from }
func (t *Transaction) To() *Account            { return t.to }
func (t *Transaction) Amount() decimal.Decimal { return t.amount }
func (t *Transaction) Charge() decimal.Decimal { return t.charge }
func (t *Transaction) Timestamp() time.Time    { return t.timestamp }
func (t *Transaction) Reference() string       { return t.reference }

// AmountFor returns the signed balance contribution of this transaction for
// the given account: -(amount+charge) for the sender, +amount otherwise.
func (t *Transaction) AmountFor(account *Account) decimal.Decimal {
	if account != nil && account.ID() == t.from.ID() {
		return t.amount.Add(t.charge).Neg()
	}
	return t.amount
}
