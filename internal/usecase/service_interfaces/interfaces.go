package service_interfaces

import (
	"context"

	"github.com/api-sage/retail-ledger/internal/domain"
)

// Prompter is the blocking interactive input surface the services depend
// on. The terminal adapter implements it; tests script it.
type Prompter interface {
	// ReadLine prompts for and returns one trimmed line of input.
	ReadLine(prompt string) (string, error)
	// ReadSecret prompts for a secret without echo. Callers wipe the
	// returned slice.
	ReadSecret(prompt string) ([]byte, error)
	// Choose presents numbered options and returns the selected index, or
	// -1 if the operator cancelled.
	Choose(prompt string, options []string) (int, error)
	// Say reports an operator-facing message.
	Say(message string)
}

type AuthService interface {
	RegisterIdentity(ctx context.Context) (*domain.Identity, error)
	Login(ctx context.Context) (*domain.Identity, error)
	PassChallenge(ctx context.Context, identity *domain.Identity) error
}

type InstitutionService interface {
	RegisterInstitution(ctx context.Context) (*domain.Institution, error)
}

type AccountService interface {
	OpenAccount(ctx context.Context, owner *domain.Identity) (*domain.Account, error)
	ChangeStatus(ctx context.Context, owner *domain.Identity) error
}

type TransferService interface {
	TransferInternal(ctx context.Context, owner *domain.Identity) (*domain.Transaction, error)
	TransferExternal(ctx context.Context, owner *domain.Identity) (*domain.Transaction, error)
}
