package services

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/config"
	"github.com/api-sage/retail-ledger/internal/domain"
)

const testSecret = "Secret#123"
const testAnswer = "blue"
const testIterations = 16

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// scriptPrompter feeds pre-scripted input to a service and records what the
// service said back. Running out of script fails the test.
type scriptPrompter struct {
	t       *testing.T
	lines   []string
	secrets []string
	choices []int
	said    []string
}

func (p *scriptPrompter) ReadLine(prompt string) (string, error) {
	if len(p.lines) == 0 {
		p.t.Fatalf("unscripted ReadLine(%q)", prompt)
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptPrompter) ReadSecret(prompt string) ([]byte, error) {
	if len(p.secrets) == 0 {
		p.t.Fatalf("unscripted ReadSecret(%q)", prompt)
	}
	secret := p.secrets[0]
	p.secrets = p.secrets[1:]
	return []byte(secret), nil
}

func (p *scriptPrompter) Choose(prompt string, options []string) (int, error) {
	if len(p.choices) == 0 {
		p.t.Fatalf("unscripted Choose(%q)", prompt)
	}
	choice := p.choices[0]
	p.choices = p.choices[1:]
	if choice >= len(options) {
		p.t.Fatalf("scripted choice %d out of range for Choose(%q) with %d options", choice, prompt, len(options))
	}
	return choice, nil
}

func (p *scriptPrompter) Say(message string) {
	p.said = append(p.said, message)
}

func (p *scriptPrompter) saidContaining(fragment string) bool {
	for _, m := range p.said {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

func testConfig() config.Config {
	return config.Config{
		PasswordMaxAttempts: 3,
		AnswerMaxAttempts:   5,
		HashIterations:      testIterations,
	}
}

func testCatalog() []QuestionSpec {
	return []QuestionSpec{
		{Prompt: "Favourite colour?", Pattern: `^[a-z]+$`},
		{Prompt: "First pet's name?", Pattern: `^[a-zA-Z]+$`},
		{Prompt: "City of birth?", Pattern: `^[a-zA-Z ]+$`},
	}
}

// fixtureIdentity registers an identity with the standard test password and
// three colour challenges answered with testAnswer.
func fixtureIdentity(t *testing.T, store *memory.Store, username, title, fullName string) *domain.Identity {
	t.Helper()
	cred, err := domain.EnrollCredential([]byte(testSecret), testIterations, 3)
	require.NoError(t, err)
	challenges := make([]*domain.SecurityChallenge, domain.ChallengeCount)
	for i := range challenges {
		answer, err := domain.EnrollCredential([]byte(testAnswer), testIterations, 5)
		require.NoError(t, err)
		challenges[i], err = domain.NewSecurityChallenge("q-"+username, "Favourite colour?", `^[a-z]+$`, answer)
		require.NoError(t, err)
	}
	u, err := domain.NewIdentity("id-"+username, username, cred, challenges, title, fullName)
	require.NoError(t, err)
	require.NoError(t, store.AddIdentity(u))
	return u
}

func fixtureInstitution(t *testing.T, store *memory.Store, chargeRate, balance string) *domain.Institution {
	t.Helper()
	b, err := domain.NewInstitution("b-test", "Sage Bank", "12-34-56",
		decimal.RequireFromString("0.02"),
		decimal.RequireFromString(chargeRate),
		decimal.RequireFromString(balance))
	require.NoError(t, err)
	require.NoError(t, store.AddInstitution(b))
	return b
}

// fixtureAccount opens an account the way the account service does: the
// institution hosts it and every holder records it.
func fixtureAccount(t *testing.T, b *domain.Institution, id, number string, accountType domain.AccountType, balance string, holders ...*domain.Identity) *domain.Account {
	t.Helper()
	a, err := domain.NewAccount(id, accountType, number, b.SortCode(),
		decimal.RequireFromString(balance), holders, testTime)
	require.NoError(t, err)
	require.NoError(t, b.Host(a))
	for _, h := range holders {
		h.AddAccount(a)
	}
	return a
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
