package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/domain"
)

// stubAuth satisfies the auth dependency with a canned identity, standing in
// for a co-holder completing the full login flow.
type stubAuth struct {
	identity *domain.Identity
	err      error
}

func (a *stubAuth) RegisterIdentity(ctx context.Context) (*domain.Identity, error) {
	return a.identity, a.err
}

func (a *stubAuth) Login(ctx context.Context) (*domain.Identity, error) {
	return a.identity, a.err
}

func (a *stubAuth) PassChallenge(ctx context.Context, identity *domain.Identity) error {
	return a.err
}

func newTestAccountService(t *testing.T, store *memory.Store, prompter *scriptPrompter, auth *stubAuth, numbers ...string) *AccountService {
	t.Helper()
	svc := NewAccountService(store, prompter, auth)
	svc.now = func() time.Time { return testTime }
	svc.newID = sequentialIDs("acc")
	svc.randomDigits = func(n int) string {
		if len(numbers) == 0 {
			t.Fatalf("unscripted randomDigits(%d)", n)
		}
		next := numbers[0]
		numbers = numbers[1:]
		return next
	}
	return svc
}

func typeIndex(t *testing.T, want domain.AccountType) int {
	t.Helper()
	for i, accountType := range domain.AccountTypes() {
		if accountType == want {
			return i
		}
	}
	t.Fatalf("unknown account type %q", want)
	return -1
}

func TestOpenAccount(t *testing.T) {
	store := memory.NewStore()
	b := fixtureInstitution(t, store, "0.01", "10000")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")

	prompter := &scriptPrompter{
		t:       t,
		choices: []int{typeIndex(t, domain.AccountTypeSavings), 0},
		lines:   []string{"250"},
	}
	svc := newTestAccountService(t, store, prompter, &stubAuth{}, "87654321")

	account, err := svc.OpenAccount(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, domain.AccountTypeSavings, account.Type())
	assert.Equal(t, "87654321", account.Number())
	assert.Equal(t, b.SortCode(), account.SortCode())
	assert.Equal(t, domain.AccountStatusActive, account.Status())
	amountEquals(t, "250", account.Balance())
	amountEquals(t, "9750", b.Balance())
	assert.True(t, b.VerifyBalance())
	assert.True(t, account.HeldBy(alice.ID()))
	require.Len(t, alice.Accounts(), 1)
}

func TestOpenAccountRejectsDuplicateType(t *testing.T) {
	store := memory.NewStore()
	b := fixtureInstitution(t, store, "0.01", "10000")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")
	fixtureAccount(t, b, "a1", "11111111", domain.AccountTypeSavings, "100", alice)

	prompter := &scriptPrompter{t: t, choices: []int{typeIndex(t, domain.AccountTypeSavings)}}
	svc := newTestAccountService(t, store, prompter, &stubAuth{})

	_, err := svc.OpenAccount(context.Background(), alice)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccountType)
	assert.Len(t, alice.Accounts(), 1)
}

func TestOpenAccountRegeneratesTakenNumber(t *testing.T) {
	store := memory.NewStore()
	b := fixtureInstitution(t, store, "0.01", "10000")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")
	fixtureAccount(t, b, "a1", "11111111", domain.AccountTypeSavings, "100", alice)

	prompter := &scriptPrompter{
		t:       t,
		choices: []int{typeIndex(t, domain.AccountTypeSpending), 0},
		lines:   []string{"50"},
	}
	svc := newTestAccountService(t, store, prompter, &stubAuth{}, "11111111", "22222222")

	account, err := svc.OpenAccount(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "22222222", account.Number())
}

func TestOpenAccountUnaffordableBalanceReprompts(t *testing.T) {
	store := memory.NewStore()
	b := fixtureInstitution(t, store, "0.01", "100")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")

	prompter := &scriptPrompter{
		t:       t,
		choices: []int{typeIndex(t, domain.AccountTypeSavings), 0},
		lines:   []string{"500", "50"},
	}
	svc := newTestAccountService(t, store, prompter, &stubAuth{}, "87654321")

	account, err := svc.OpenAccount(context.Background(), alice)
	require.NoError(t, err)
	amountEquals(t, "50", account.Balance())
	amountEquals(t, "50", b.Balance())
	assert.True(t, prompter.saidContaining("can NOT afford"))
}

func TestOpenJointAccountAuthenticatesCoHolder(t *testing.T) {
	store := memory.NewStore()
	fixtureInstitution(t, store, "0.01", "10000")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")
	bob := fixtureIdentity(t, store, "b_jones", "Mr", "Bob Jones")

	prompter := &scriptPrompter{
		t: t,
		// Joint type, decline further holders, pick the bank.
		choices: []int{typeIndex(t, domain.AccountTypeJoint), 1, 0},
		lines:   []string{"100"},
	}
	svc := newTestAccountService(t, store, prompter, &stubAuth{identity: bob}, "87654321")

	account, err := svc.OpenAccount(context.Background(), alice)
	require.NoError(t, err)

	require.Len(t, account.Holders(), 2)
	assert.True(t, account.HeldBy(alice.ID()))
	assert.True(t, account.HeldBy(bob.ID()))
	assert.Len(t, alice.Accounts(), 1)
	assert.Len(t, bob.Accounts(), 1)
}

func TestChangeStatus(t *testing.T) {
	store := memory.NewStore()
	b := fixtureInstitution(t, store, "0.01", "10000")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")
	account := fixtureAccount(t, b, "a1", "11111111", domain.AccountTypeSavings, "100", alice)

	prompter := &scriptPrompter{t: t, choices: []int{0, 1}}
	svc := newTestAccountService(t, store, prompter, &stubAuth{})

	require.NoError(t, svc.ChangeStatus(context.Background(), alice))
	assert.Equal(t, domain.AccountStatusFrozen, account.Status())
}

func TestChangeStatusRejectsClosingFundedAccount(t *testing.T) {
	store := memory.NewStore()
	b := fixtureInstitution(t, store, "0.01", "10000")
	alice := fixtureIdentity(t, store, "a_smith", "Ms", "Alice Smith")
	account := fixtureAccount(t, b, "a1", "11111111", domain.AccountTypeSavings, "100", alice)

	prompter := &scriptPrompter{t: t, choices: []int{0, 2}}
	svc := newTestAccountService(t, store, prompter, &stubAuth{})

	assert.ErrorIs(t, svc.ChangeStatus(context.Background(), alice), domain.ErrAccountNotEmpty)
	assert.Equal(t, domain.AccountStatusActive, account.Status())
}
