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

var percentDivisor = decimal.NewFromInt(100)

// InstitutionService handles administrative institution enrollment.
type InstitutionService struct {
	store    *memory.Store
	prompter service_interfaces.Prompter

	now          func() time.Time
	newID        func() string
	randomDigits func(n int) string
}

func NewInstitutionService(store *memory.Store, prompter service_interfaces.Prompter) *InstitutionService {
	return &InstitutionService{
		store:        store,
		prompter:     prompter,
		now:          time.Now,
		newID:        uuid.NewString,
		randomDigits: randomDigits,
	}
}

// RegisterInstitution enrolls a new institution with a generated unique sort
// code, its rates and an opening balance.
func (s *InstitutionService) RegisterInstitution(ctx context.Context) (*domain.Institution, error) {
	logger.Info("institution service register request", nil)

	name, err := s.prompter.ReadLine("Enter Bank NAME")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.ErrCancelled
	}

	var sortCode string
	for {
		sortCode = fmt.Sprintf("%s-%s-%s", s.randomDigits(2), s.randomDigits(2), s.randomDigits(2))
		if domain.ValidSortCode(sortCode) && !s.store.SortCodeExists(sortCode) {
			break
		}
	}

	interestPercent, err := promptNonNegative(s.prompter, "Enter Bank INTEREST RATE {XX%}")
	if err != nil {
		return nil, err
	}
	chargePercent, err := promptNonNegative(s.prompter, "Enter Bank CHARGE PER TRANSACTION {XX%}")
	if err != nil {
		return nil, err
	}
	initialBalance, err := promptNonNegative(s.prompter, "Enter Bank BALANCE")
	if err != nil {
		return nil, err
	}

	institution, err := domain.NewInstitution(
		s.newID(),
		name,
		sortCode,
		interestPercent.Div(percentDivisor),
		chargePercent.Div(percentDivisor),
		initialBalance,
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddInstitution(institution); err != nil {
		return nil, err
	}

	logger.Info("institution service register success", logger.Fields{
		"institutionId": institution.ID(),
		"name":          institution.Name(),
		"sortCode":      institution.SortCode(),
	})
	return institution, nil
}
