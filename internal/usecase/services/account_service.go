package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/logger"
	"github.com/api-sage/retail-ledger/internal/usecase/service_interfaces"
)

// AccountService opens accounts for authenticated identities and changes
// account status.
type AccountService struct {
	store    *memory.Store
	prompter service_interfaces.Prompter
	auth     service_interfaces.AuthService

	now          func() time.Time
	newID        func() string
	randomDigits func(n int) string
}

func NewAccountService(store *memory.Store, prompter service_interfaces.Prompter, auth service_interfaces.AuthService) *AccountService {
	return &AccountService{
		store:        store,
		prompter:     prompter,
		auth:         auth,
		now:          time.Now,
		newID:        uuid.NewString,
		randomDigits: randomDigits,
	}
}

// OpenAccount walks an authenticated owner through opening an account: type
// selection (joint types authenticate at least one co-holder through the
// full login flow), hosting institution, generated unique account number and
// an opening balance the institution can afford. The institution is debited
// and its balance verified afterward; a verification mismatch is returned as
// a ConsistencyError alongside the already-created account.
func (s *AccountService) OpenAccount(ctx context.Context, owner *domain.Identity) (*domain.Account, error) {
	logger.Info("account service open account request", logger.Fields{"identityId": owner.ID()})

	types := domain.AccountTypes()
	typeLabels := make([]string, len(types))
	for i, t := range types {
		typeLabels[i] = string(t)
	}
	choice, err := s.prompter.Choose("Enter Account Type", typeLabels)
	if err != nil {
		return nil, err
	}
	if choice < 0 {
		return nil, domain.ErrCancelled
	}
	accountType := types[choice]

	if owner.HasOpenAccountOfType(accountType) {
		s.prompter.Say(fmt.Sprintf("You already have an open '%s' Account!", accountType))
		return nil, domain.ErrDuplicateAccountType
	}

	holders := []*domain.Identity{owner}
	if accountType.Joint() {
		if err := s.addCoHolders(ctx, &holders); err != nil {
			return nil, err
		}
	}

	institutions := s.store.Institutions()
	if len(institutions) == 0 {
		return nil, domain.ErrInstitutionNotFound
	}
	labels := make([]string, len(institutions))
	for i, b := range institutions {
		labels[i] = institutionLabel(b)
	}
	choice, err = s.prompter.Choose("Enter Bank", labels)
	if err != nil {
		return nil, err
	}
	if choice < 0 {
		return nil, domain.ErrCancelled
	}
	institution := institutions[choice]

	var number string
	for {
		number = s.randomDigits(8)
		if domain.ValidAccountNumber(number) && !s.store.AccountNumberExists(number) {
			break
		}
	}

	var openingBalance decimal.Decimal
	for {
		openingBalance, err = promptNonNegative(s.prompter, "Enter Initial Balance")
		if err != nil {
			return nil, err
		}
		if institution.CanAfford(openingBalance) {
			break
		}
		s.prompter.Say(fmt.Sprintf("%s can NOT afford an opening balance of %s!", institution.Name(), openingBalance.StringFixed(2)))
	}

	account, err := domain.NewAccount(s.newID(), accountType, number, institution.SortCode(), openingBalance, holders, s.now())
	if err != nil {
		return nil, err
	}
	if err := institution.Host(account); err != nil {
		return nil, err
	}
	for _, holder := range holders {
		holder.AddAccount(account)
	}

	logger.Info("account service open account success", logger.Fields{
		"accountId":     account.ID(),
		"accountNumber": account.Number(),
		"type":          string(account.Type()),
		"institution":   institution.Name(),
	})

	if !institution.VerifyBalance() {
		consistency := &domain.ConsistencyError{Entities: []string{"institution " + institution.Name()}}
		logger.Error("account service open account verification failed", consistency, logger.Fields{
			"accountId": account.ID(),
		})
		return account, consistency
	}
	return account, nil
}

// addCoHolders authenticates additional holders until the joint minimum is
// met and the operator declines to add more.
func (s *AccountService) addCoHolders(ctx context.Context, holders *[]*domain.Identity) error {
	for {
		s.prompter.Say("Authenticate an additional holder:")
		co, err := s.auth.Login(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrCancelled) {
				return err
			}
			s.prompter.Say("Additional holder authentication failed!")
			continue
		}
		if holderExists(*holders, co.ID()) {
			s.prompter.Say(fmt.Sprintf("'%s' is already a holder of this account!", co.Username()))
		} else {
			*holders = append(*holders, co)
		}
		if len(*holders) >= 2 {
			more, err := s.prompter.Choose("Add another holder?", []string{"Yes", "No"})
			if err != nil {
				return err
			}
			if more != 0 {
				return nil
			}
		}
	}
}

func holderExists(holders []*domain.Identity, id string) bool {
	for _, h := range holders {
		if h.ID() == id {
			return true
		}
	}
	return false
}

// ChangeStatus transitions one of the owner's accounts. Closing a non-empty
// account is rejected.
func (s *AccountService) ChangeStatus(ctx context.Context, owner *domain.Identity) error {
	accounts := owner.Accounts()
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts to modify")
	}

	choice, err := s.prompter.Choose("Enter Account", accountLabels(accounts))
	if err != nil {
		return err
	}
	if choice < 0 {
		return domain.ErrCancelled
	}
	account := accounts[choice]

	statuses := domain.AccountStatuses()
	statusLabels := make([]string, len(statuses))
	for i, status := range statuses {
		statusLabels[i] = string(status)
	}
	choice, err = s.prompter.Choose("Enter new STATUS", statusLabels)
	if err != nil {
		return err
	}
	if choice < 0 {
		return domain.ErrCancelled
	}

	if err := account.SetStatus(statuses[choice]); err != nil {
		return err
	}
	logger.Info("account service status changed", logger.Fields{
		"accountNumber": account.Number(),
		"status":        string(account.Status()),
	})
	return nil
}
