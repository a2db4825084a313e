package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

func AccountStatuses() []AccountStatus {
	return []AccountStatus{AccountStatusActive, AccountStatusFrozen, AccountStatusClosed}
}

type AccountType string

const (
	AccountTypeSavings     AccountType = "Savings"
	AccountTypeYoungSavers AccountType = "Young Savers"
	AccountTypeSpending    AccountType = "Spending"
	AccountTypeChecking    AccountType = "Checking"
	AccountTypeBusiness    AccountType = "Business"
	AccountTypeJoint       AccountType = "Joint"
	AccountTypePersonal    AccountType = "Personal"
	AccountTypeStudent     AccountType = "Student"
)

type accountTypeInfo struct {
	interestRate decimal.Decimal
	joint        bool
}

var accountTypes = map[AccountType]accountTypeInfo{
	AccountTypeSavings:     {decimal.RequireFromString("1.05"), false},
	AccountTypeYoungSavers: {decimal.RequireFromString("1.10"), false},
	AccountTypeSpending:    {decimal.RequireFromString("1.01"), false},
	AccountTypeChecking:    {decimal.RequireFromString("1.01"), false},
	AccountTypeBusiness:    {decimal.RequireFromString("1.01"), true},
	AccountTypeJoint:       {decimal.RequireFromString("1.04"), true},
	AccountTypePersonal:    {decimal.RequireFromString("1.05"), false},
	AccountTypeStudent:     {decimal.RequireFromString("1.08"), false},
}

func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeSavings,
		AccountTypeYoungSavers,
		AccountTypeSpending,
		AccountTypeChecking,
		AccountTypeBusiness,
		AccountTypeJoint,
		AccountTypePersonal,
		AccountTypeStudent,
	}
}

// InterestRate is a static per-type rate; it is never applied.
func (t AccountType) InterestRate() decimal.Decimal {
	return accountTypes[t].interestRate
}

// Joint reports whether accounts of this type must be held by two or more
// identities.
func (t AccountType) Joint() bool {
	return accountTypes[t].joint
}

func (t AccountType) Valid() bool {
	_, ok := accountTypes[t]
	return ok
}

// Account is a balance-bearing entity held by one or more identities and
// hosted by exactly one institution, identified to that institution by the
// institution's sort code.
type Account struct {
	id             string
	accountType    AccountType
	number         string
	sortCode       string
	initialBalance decimal.Decimal
	balance        decimal.Decimal
	transactions   []*Transaction
	holders        []*Identity
	createdAt      time.Time
	status         AccountStatus
}

func NewAccount(id string, accountType AccountType, number, sortCode string, initialBalance decimal.Decimal, holders []*Identity, createdAt time.Time) (*Account, error) {
	if !accountType.Valid() {
		return nil, fmt.Errorf("unknown account type %q", accountType)
	}
	if !ValidAccountNumber(number) {
		return nil, fmt.Errorf("account number %q must be 8 digits", number)
	}
	if !ValidSortCode(sortCode) {
		return nil, fmt.Errorf("sort code %q must match DD-DD-DD", sortCode)
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("initial balance must not be negative, got %s", initialBalance)
	}
	if len(holders) < 1 {
		return nil, fmt.Errorf("account requires at least one holder")
	}
	if accountType.Joint() && len(holders) < 2 {
		return nil, fmt.Errorf("%s accounts require at least two holders", accountType)
	}
	return &Account{
		id:             id,
		accountType:    accountType,
		number:         number,
		sortCode:       sortCode,
		initialBalance: initialBalance,
		balance:        initialBalance,
		holders:        holders,
		createdAt:      createdAt,
		status:         AccountStatusActive,
	}, nil
}

func (a *Account) ID() string                      { return a.id }
func (a *Account) Type() AccountType               { return a.accountType }
func (a *Account) Number() string                  { return a.number }
func (a *Account) SortCode() string                { return a.sortCode }
func (a *Account) InitialBalance() decimal.Decimal { return a.initialBalance }
func (a *Account) Balance() decimal.Decimal        { return a.balance }
func (a *Account) Status() AccountStatus           { return a.status }
func (a *Account) CreatedAt() time.Time            { return a.createdAt }

func (a *Account) Holders() []*Identity {
	return a.holders
}

func (a *Account) HeldBy(identityID string) bool {
	for _, h := range a.holders {
		if h.ID() == identityID {
			return true
		}
	}
	return false
}

// SetStatus transitions the account. Closing is only permitted at zero
// balance.
func (a *Account) SetStatus(status AccountStatus) error {
	if status == AccountStatusClosed && !a.balance.IsZero() {
		return ErrAccountNotEmpty
	}
	a.status = status
	return nil
}

func (a *Account) IsEmpty() bool {
	return a.balance.IsZero()
}

func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(a.balance)
}

// Post applies the transaction's signed contribution to the running balance
// and appends it to the account's history.
func (a *Account) Post(t *Transaction) {
	a.balance = a.balance.Add(t.AmountFor(a))
	a.transactions = append(a.transactions, t)
}

func (a *Account) Transactions() []*Transaction {
	return a.transactions
}

// RecentTransactions returns up to n transactions, newest first.
func (a *Account) RecentTransactions(n int) []*Transaction {
	out := make([]*Transaction, 0, n)
	for i := len(a.transactions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.transactions[i])
	}
	return out
}

// VerifyBalance recomputes the expected balance from the initial balance and
// every transaction in the history, then compares it with the stored running
// balance. Run as a post-condition after every mutating operation.
func (a *Account) VerifyBalance() bool {
	expected := a.initialBalance
	for _, t := range a.transactions {
		expected = expected.Add(t.AmountFor(a))
	}
	return expected.Equal(a.balance)
}

// RestoreAccount rebuilds persisted account state; history is reattached separately
// once the transactions have been decoded.
func RestoreAccount(id string, accountType AccountType, number, sortCode string, initialBalance, balance decimal.Decimal, status AccountStatus, holders []*Identity, createdAt time.Time) (*Account, error) {
	a, err := NewAccount(id, accountType, number, sortCode, initialBalance, holders, createdAt)
	if err != nil {
		return nil, err
	}
	a.balance = balance
	a.status = status
	return a, nil
}

// AttachHistory replaces the account's history without touching the running
// balance. Only used when reloading a persisted ledger.
func (a *Account) AttachHistory(transactions []*Transaction) {
	a.transactions = transactions
}
