package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Institution hosts accounts and charges a per-transfer fee. Hosting an
// account debits the institution by the account's opening balance; every
// posted transaction credits it by the transaction's charge.
type Institution struct {
	id             string
	name           string
	sortCode       string
	interestRate   decimal.Decimal
	chargeRate     decimal.Decimal
	initialBalance decimal.Decimal
	balance        decimal.Decimal
	accounts       []*Account
	transactions   []*Transaction
}

func NewInstitution(id, name, sortCode string, interestRate, chargeRate, initialBalance decimal.Decimal) (*Institution, error) {
	if name == "" {
		return nil, fmt.Errorf("institution name is required")
	}
	if !ValidSortCode(sortCode) {
		return nil, fmt.Errorf("sort code %q must match DD-DD-DD", sortCode)
	}
	if interestRate.IsNegative() || chargeRate.IsNegative() {
		return nil, fmt.Errorf("rates must not be negative")
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("initial balance must not be negative, got %s", initialBalance)
	}
	return &Institution{
		id:             id,
		name:           name,
		sortCode:       sortCode,
		interestRate:   interestRate,
		chargeRate:     chargeRate,
		initialBalance: initialBalance,
		balance:        initialBalance,
	}, nil
}

func (b *Institution) ID() string                      { return b.id }
func (b *Institution) Name() string                    { return b.name }
func (b *Institution) SortCode() string                { return b.sortCode }
func (b *Institution) InterestRate() decimal.Decimal   { return b.interestRate }
func (b *Institution) ChargeRate() decimal.Decimal     { return b.chargeRate }
func (b *Institution) InitialBalance() decimal.Decimal { return b.initialBalance }
func (b *Institution) Balance() decimal.Decimal        { return b.balance }

func (b *Institution) CanAfford(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(b.balance)
}

// Host registers an account with the institution and debits its balance by
// the account's opening amount.
func (b *Institution) Host(a *Account) error {
	if a.SortCode() != b.sortCode {
		return fmt.Errorf("account sort code %s does not belong to %s", a.SortCode(), b.name)
	}
	if !b.CanAfford(a.InitialBalance()) {
		return ErrInsufficientFunds
	}
	b.accounts = append(b.accounts, a)
	b.balance = b.balance.Sub(a.InitialBalance())
	return nil
}

// Post credits the institution with the transaction's charge and appends the
// transaction to its history.
func (b *Institution) Post(t *Transaction) {
	b.balance = b.balance.Add(t.Charge())
	b.transactions = append(b.transactions, t)
}

func (b *Institution) Accounts() []*Account {
	return b.accounts
}

func (b *Institution) Transactions() []*Transaction {
	return b.transactions
}

// RecentTransactions returns up to n transactions, newest first.
func (b *Institution) RecentTransactions(n int) []*Transaction {
	out := make([]*Transaction, 0, n)
	for i := len(b.transactions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, b.transactions[i])
	}
	return out
}

// VerifyBalance recomputes the expected balance: the initial balance, minus
// every hosted account's opening balance, plus every recorded charge. Run as
// a post-condition after every mutating operation.
func (b *Institution) VerifyBalance() bool {
	expected := b.initialBalance
	for _, a := range b.accounts {
		expected = expected.Sub(a.InitialBalance())
	}
	for _, t := range b.transactions {
		expected = expected.Add(t.Charge())
	}
	return expected.Equal(b.balance)
}

// RestoreInstitution rebuilds persisted institution state; hosted accounts
// and history are reattached separately once decoded.
func RestoreInstitution(id, name, sortCode string, interestRate, chargeRate, initialBalance, balance decimal.Decimal) (*Institution, error) {
	b, err := NewInstitution(id, name, sortCode, interestRate, chargeRate, initialBalance)
	if err != nil {
		return nil, err
	}
	b.balance = balance
	return b, nil
}

// AttachHosted restores hosted accounts and history without re-debiting the
// balance. Only used when reloading a persisted ledger.
func (b *Institution) AttachHosted(accounts []*Account, transactions []*Transaction) {
	b.accounts = accounts
	b.transactions = transactions
}
