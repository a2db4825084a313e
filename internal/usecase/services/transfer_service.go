package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/logger"
	"github.com/api-sage/retail-ledger/internal/usecase/service_interfaces"
)

// ChallengeVerifier is the heightened-assurance step external transfers
// require before funds move. AuthService satisfies it.
type ChallengeVerifier interface {
	PassChallenge(ctx context.Context, identity *domain.Identity) error
}

// TransferService coordinates money movement: internal transfers between an
// identity's own accounts, external transfers to connected accounts
// (including first-time payee discovery), three-ledger posting and
// post-transfer balance verification.
type TransferService struct {
	store     *memory.Store
	prompter  service_interfaces.Prompter
	challenge ChallengeVerifier

	now   func() time.Time
	newID func() string
}

func NewTransferService(store *memory.Store, prompter service_interfaces.Prompter, challenge ChallengeVerifier) *TransferService {
	return &TransferService{
		store:     store,
		prompter:  prompter,
		challenge: challenge,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// TransferInternal moves money between two of the owner's active accounts.
// No charge applies.
func (s *TransferService) TransferInternal(ctx context.Context, owner *domain.Identity) (*domain.Transaction, error) {
	logger.Info("transfer service internal transfer request", logger.Fields{"identityId": owner.ID()})

	accounts := owner.OpenAccounts()
	if len(accounts) < 2 {
		s.prompter.Say(fmt.Sprintf("Not Enough Accounts (%d/2)!", len(accounts)))
		return nil, domain.ErrNotEnoughAccounts
	}

	choice, err := s.prompter.Choose("Enter FROM Account", accountLabels(accounts))
	if err != nil {
		return nil, err
	}
	if choice < 0 {
		return nil, domain.ErrCancelled
	}
	from := accounts[choice]

	remaining := make([]*domain.Account, 0, len(accounts)-1)
	for _, a := range accounts {
		if a.ID() != from.ID() {
			remaining = append(remaining, a)
		}
	}
	to := remaining[0]
	if len(remaining) > 1 {
		choice, err = s.prompter.Choose("Enter TO Account", accountLabels(remaining))
		if err != nil {
			return nil, err
		}
		if choice < 0 {
			return nil, domain.ErrCancelled
		}
		to = remaining[choice]
	}

	reference, err := s.prompter.ReadLine("Enter REFERENCE [OPTIONAL]")
	if err != nil {
		return nil, err
	}

	return s.post(ctx, from, to, reference, false)
}

// TransferExternal moves money from one of the owner's accounts to a
// connected external account, discovering and saving a new connection when
// needed. A fresh security-challenge pass is required before funds move, and
// the hosting institution's charge applies.
func (s *TransferService) TransferExternal(ctx context.Context, owner *domain.Identity) (*domain.Transaction, error) {
	logger.Info("transfer service external transfer request", logger.Fields{"identityId": owner.ID()})

	accounts := owner.OpenAccounts()
	if len(accounts) == 0 {
		return nil, domain.ErrNotEnoughAccounts
	}
	choice, err := s.prompter.Choose("Enter FROM Account", accountLabels(accounts))
	if err != nil {
		return nil, err
	}
	if choice < 0 {
		return nil, domain.ErrCancelled
	}
	from := accounts[choice]

	target, err := s.resolveTarget(ctx, owner, from)
	if err != nil {
		return nil, err
	}

	connection, ok := owner.ConnectionTo(target.ID())
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}

	reference, err := s.prompter.ReadLine(fmt.Sprintf("Enter REFERENCE [Default: '%s']", connection.Reference()))
	if err != nil {
		return nil, err
	}
	if reference == "" {
		reference = connection.Reference()
	}

	if err := s.challenge.PassChallenge(ctx, owner); err != nil {
		s.prompter.Say("Security Question Failed!")
		return nil, err
	}

	return s.post(ctx, from, target, reference, true)
}

// resolveTarget selects an existing connection's account or discovers a new
// payee.
func (s *TransferService) resolveTarget(ctx context.Context, owner *domain.Identity, from *domain.Account) (*domain.Account, error) {
	connections := owner.Connections()
	if len(connections) == 0 {
		return s.discoverPayee(ctx, owner, from)
	}

	choice, err := s.prompter.Choose("Transfer TO", []string{"Existing Account", "New Account"})
	if err != nil {
		return nil, err
	}
	switch choice {
	case 0:
		labels := make([]string, len(connections))
		for i, c := range connections {
			labels[i] = connectionLabel(c)
		}
		selected, err := s.prompter.Choose("Enter TO Account", labels)
		if err != nil {
			return nil, err
		}
		if selected < 0 {
			return nil, domain.ErrCancelled
		}
		return connections[selected].Target(), nil
	case 1:
		return s.discoverPayee(ctx, owner, from)
	default:
		return nil, domain.ErrCancelled
	}
}

// discoverPayee resolves a first-time external target by payee display name,
// account number and sort code, then saves a connection with an optional
// default reference. Malformed input re-prompts; a failed lookup aborts.
func (s *TransferService) discoverPayee(ctx context.Context, owner *domain.Identity, from *domain.Account) (*domain.Account, error) {
	payeeName, err := promptValidated(s.prompter, "Enter PAYEE NAME {TITLE INITIAL LAST}", domain.ValidPayeeName, "PAYEE NAME incorrectly formatted!")
	if err != nil {
		return nil, err
	}
	if !s.store.PayeeExists(payeeName) {
		s.prompter.Say("No Payee Found!")
		return nil, domain.ErrPayeeNotFound
	}

	number, err := promptValidated(s.prompter, "Enter ACCOUNT NUMBER {8 Digits}", domain.ValidAccountNumber, "ACCOUNT NUMBER incorrectly formatted!")
	if err != nil {
		return nil, err
	}
	sortCode, err := promptValidated(s.prompter, "Enter SORT CODE {DD-DD-DD}", domain.ValidSortCode, "SORT CODE incorrectly formatted!")
	if err != nil {
		return nil, err
	}

	target, err := s.store.AccountByPayee(payeeName, number, sortCode)
	if err != nil {
		s.prompter.Say("No Account Found!")
		return nil, err
	}
	if target.ID() == from.ID() {
		return nil, domain.ErrSelfConnection
	}

	if _, ok := owner.ConnectionTo(target.ID()); ok {
		// At most one connection per target; reuse the existing one.
		return target, nil
	}

	reference, err := s.prompter.ReadLine("Enter Default REFERENCE [OPTIONAL]")
	if err != nil {
		return nil, err
	}
	connection, err := domain.NewConnection(s.newID(), owner, target, reference)
	if err != nil {
		return nil, err
	}
	if err := owner.AddConnection(connection); err != nil {
		return nil, err
	}

	logger.Info("transfer service connection added", logger.Fields{
		"identityId":    owner.ID(),
		"targetAccount": target.Number(),
	})
	return target, nil
}

// post runs the money-movement protocol: resolve the hosting institution,
// prompt for an affordable amount (re-prompting while amount plus charge
// exceeds the source balance; no transaction exists until affordability
// holds), construct the transaction, mutate all three balances, append it to
// all three histories and re-verify each entity. A verification mismatch is
// returned as a ConsistencyError alongside the applied transaction; the
// mutation is not reverted.
func (s *TransferService) post(ctx context.Context, from, to *domain.Account, reference string, external bool) (*domain.Transaction, error) {
	institution, err := s.store.InstitutionForAccount(from)
	if err != nil {
		return nil, err
	}

	var amount, charge decimal.Decimal
	for {
		amount, err = promptAmount(s.prompter, "Enter AMOUNT")
		if err != nil {
			return nil, err
		}
		charge = decimal.Zero
		if external {
			charge = amount.Mul(institution.ChargeRate())
		}
		total := amount.Add(charge)
		if from.CanAfford(total) {
			break
		}
		s.prompter.Say(fmt.Sprintf(
			"Account [%s] can NOT afford: %s + %s (CHARGE) = %s",
			from.Number(), amount.StringFixed(2), charge.StringFixed(2), total.StringFixed(2),
		))
	}

	transaction, err := domain.NewTransaction(s.newID(), from, to, amount, charge, s.now(), reference)
	if err != nil {
		return nil, err
	}

	institution.Post(transaction)
	from.Post(transaction)
	to.Post(transaction)

	logger.Info("transfer service posted", logger.Fields{
		"transactionId": transaction.ID(),
		"fromAccount":   from.Number(),
		"toAccount":     to.Number(),
		"amount":        amount.StringFixed(2),
		"charge":        charge.StringFixed(2),
	})

	var failed []string
	if !from.VerifyBalance() {
		failed = append(failed, "account "+from.Number())
	}
	if !to.VerifyBalance() {
		failed = append(failed, "account "+to.Number())
	}
	if !institution.VerifyBalance() {
		failed = append(failed, "institution "+institution.Name())
	}
	if len(failed) > 0 {
		consistency := &domain.ConsistencyError{Entities: failed}
		logger.Error("transfer service verification failed", consistency, logger.Fields{
			"transactionId": transaction.ID(),
		})
		return transaction, consistency
	}
	return transaction, nil
}
