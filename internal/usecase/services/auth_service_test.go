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

func newTestAuthService(t *testing.T, store *memory.Store, prompter *scriptPrompter) *AuthService {
	t.Helper()
	svc := NewAuthService(store, prompter, testConfig(), testCatalog())
	svc.now = func() time.Time { return testTime }
	svc.pick = func(n int) int { return 0 }
	svc.newID = sequentialIDs("id")
	return svc
}

func TestAuthenticateSuccess(t *testing.T) {
	store := memory.NewStore()
	fixtureIdentity(t, store, "j_smith", "Mr", "John Smith")
	prompter := &scriptPrompter{t: t, secrets: []string{testAnswer, testSecret}}
	svc := newTestAuthService(t, store, prompter)

	got, err := svc.Authenticate(context.Background(), "j_smith")
	require.NoError(t, err)
	assert.Equal(t, "j_smith", got.Username())
	assert.Equal(t, 0, got.LockCount())
}

func TestAuthenticateUnknownUsername(t *testing.T) {
	store := memory.NewStore()
	prompter := &scriptPrompter{t: t}
	svc := newTestAuthService(t, store, prompter)

	_, err := svc.Authenticate(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestAuthenticateLocksAfterPasswordExhaustion(t *testing.T) {
	store := memory.NewStore()
	u := fixtureIdentity(t, store, "j_smith", "Mr", "John Smith")
	prompter := &scriptPrompter{t: t, secrets: []string{testAnswer, "wrong1", "wrong2", "wrong3"}}
	svc := newTestAuthService(t, store, prompter)

	_, err := svc.Authenticate(context.Background(), "j_smith")
	assert.ErrorIs(t, err, domain.ErrAccountLocked)
	assert.Equal(t, 1, u.LockCount())
	assert.Equal(t, testTime.Add(time.Minute), u.UnlockAt())

	// While locked, the flow rejects the username before prompting for
	// anything. An empty script proves no prompt was issued.
	locked := newTestAuthService(t, store, &scriptPrompter{t: t})
	_, err = locked.Authenticate(context.Background(), "j_smith")
	assert.ErrorIs(t, err, domain.ErrAccountLocked)

	// Once the lock elapses the identity can log in again with a fresh
	// password budget.
	retry := newTestAuthService(t, store, &scriptPrompter{t: t, secrets: []string{testAnswer, testSecret}})
	retry.now = func() time.Time { return testTime.Add(time.Minute) }
	got, err := retry.Authenticate(context.Background(), "j_smith")
	require.NoError(t, err)
	assert.Equal(t, 0, got.LockCount())
}

func TestChallengeFailureDoesNotLock(t *testing.T) {
	store := memory.NewStore()
	u := fixtureIdentity(t, store, "j_smith", "Mr", "John Smith")
	prompter := &scriptPrompter{t: t, secrets: []string{"red", "red", "red", "red", "red"}}
	svc := newTestAuthService(t, store, prompter)

	_, err := svc.Authenticate(context.Background(), "j_smith")
	assert.ErrorIs(t, err, domain.ErrChallengeFailed)
	assert.Equal(t, 0, u.LockCount())
	assert.True(t, u.Unlocked(testTime))
}

func TestPassChallengeFormatGate(t *testing.T) {
	store := memory.NewStore()
	u := fixtureIdentity(t, store, "j_smith", "Mr", "John Smith")
	// A malformed answer re-prompts without spending a verification try.
	prompter := &scriptPrompter{t: t, secrets: []string{"BLUE!", "123", testAnswer}}
	svc := newTestAuthService(t, store, prompter)

	require.NoError(t, svc.PassChallenge(context.Background(), u))
	assert.True(t, prompter.saidContaining("Incorrectly Formatted"))
}

func TestPassChallengeEmptyAnswerFails(t *testing.T) {
	store := memory.NewStore()
	u := fixtureIdentity(t, store, "j_smith", "Mr", "John Smith")
	prompter := &scriptPrompter{t: t, secrets: []string{""}}
	svc := newTestAuthService(t, store, prompter)

	assert.ErrorIs(t, svc.PassChallenge(context.Background(), u), domain.ErrChallengeFailed)
}

func TestLoginEmptyUsernameCancels(t *testing.T) {
	store := memory.NewStore()
	prompter := &scriptPrompter{t: t, lines: []string{""}}
	svc := newTestAuthService(t, store, prompter)

	_, err := svc.Login(context.Background())
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestRegisterIdentity(t *testing.T) {
	store := memory.NewStore()
	prompter := &scriptPrompter{
		t:     t,
		lines: []string{"j_smith", "Mr", "John Smith"},
		secrets: []string{
			testSecret, testSecret,
			"blue", "blue",
			"Rex", "Rex",
			"London", "London",
		},
		choices: []int{0, 0, 0},
	}
	svc := newTestAuthService(t, store, prompter)

	u, err := svc.RegisterIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "j_smith", u.Username())
	assert.Equal(t, "Mr John Smith", u.FormatName())
	assert.Len(t, u.Challenges(), domain.ChallengeCount)
	assert.Equal(t, 1, store.IdentityCount())

	// The enrolled password is live.
	assert.True(t, u.VerifyPassword([]byte(testSecret)))
}

func TestRegisterIdentityRejectsTakenUsername(t *testing.T) {
	store := memory.NewStore()
	fixtureIdentity(t, store, "j_smith", "Mr", "John Smith")
	prompter := &scriptPrompter{
		t:     t,
		lines: []string{"j_smith", "j smith", "j_smith2", "Ms", "Jane Smith"},
		secrets: []string{
			testSecret, testSecret,
			"blue", "blue",
			"Rex", "Rex",
			"London", "London",
		},
		choices: []int{0, 0, 0},
	}
	svc := newTestAuthService(t, store, prompter)

	u, err := svc.RegisterIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "j_smith2", u.Username())
	assert.True(t, prompter.saidContaining("already exists"))
	assert.True(t, prompter.saidContaining("incorrectly formatted"))
}

func TestRegisterIdentityPasswordMismatchReprompts(t *testing.T) {
	store := memory.NewStore()
	prompter := &scriptPrompter{
		t:     t,
		lines: []string{"j_smith", "Mr", "John Smith"},
		secrets: []string{
			"weakpass",                // fails the password policy
			testSecret, "Different#1", // confirmation mismatch
			testSecret, testSecret,
			"blue", "blue",
			"Rex", "Rex",
			"London", "London",
		},
		choices: []int{0, 0, 0},
	}
	svc := newTestAuthService(t, store, prompter)

	u, err := svc.RegisterIdentity(context.Background())
	require.NoError(t, err)
	assert.True(t, prompter.saidContaining("not the same"))
	assert.True(t, u.VerifyPassword([]byte(testSecret)))
}
