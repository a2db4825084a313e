package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIdentityNotFound = errors.New("identity not found")
var ErrPayeeNotFound = errors.New("payee not found")
var ErrInstitutionNotFound = errors.New("institution not found")
var ErrConnectionNotFound = errors.New("connection not found")

var ErrAccountLocked = errors.New("identity is locked")
var ErrChallengeFailed = errors.New("security challenge failed")
var ErrInsufficientFunds = errors.New("insufficient funds")

var ErrSelfConnection = errors.New("connection target is the source account")
var ErrConnectionExists = errors.New("connection already exists")
var ErrDuplicateAccountType = errors.New("an open account of this type already exists")
var ErrAccountNotEmpty = errors.New("account balance is not zero")
var ErrNotEnoughAccounts = errors.New("not enough accounts to transfer between")

var ErrUsernameTaken = errors.New("username already exists")
var ErrSortCodeTaken = errors.New("sort code already exists")

// ErrCancelled is returned when the operator abandons an interactive
// operation by submitting empty input.
var ErrCancelled = errors.New("cancelled")

// ConsistencyError reports entities whose recomputed balance no longer
// matches their stored running balance after a posting. The applied mutation
// is not reverted; the ledger is left as-is for manual reconciliation.
type ConsistencyError struct {
	Entities []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("balance verification failed for: %s", strings.Join(e.Entities, ", "))
}
