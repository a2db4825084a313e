package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/adapter/snapshot"
	"github.com/api-sage/retail-ledger/internal/domain"
)

const testIterations = 16

func buildIdentity(t *testing.T, username, title, fullName string) *domain.Identity {
	t.Helper()
	cred, err := domain.EnrollCredential([]byte("Secret#123"), testIterations, 3)
	require.NoError(t, err)
	challenges := make([]*domain.SecurityChallenge, domain.ChallengeCount)
	for i := range challenges {
		answer, err := domain.EnrollCredential([]byte("blue"), testIterations, 5)
		require.NoError(t, err)
		challenges[i], err = domain.NewSecurityChallenge("q-"+username, "Favourite colour?", `^[a-z]+$`, answer)
		require.NoError(t, err)
	}
	u, err := domain.NewIdentity("id-"+username, username, cred, challenges, title, fullName)
	require.NoError(t, err)
	return u
}

// buildLedger assembles a populated graph: one institution, two identities,
// two accounts, one saved connection and one posted external transfer.
func buildLedger(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()

	b, err := domain.NewInstitution("b1", "Sage Bank", "12-34-56",
		decimal.RequireFromString("0.02"), decimal.RequireFromString("0.01"), decimal.RequireFromString("10000"))
	require.NoError(t, err)
	require.NoError(t, store.AddInstitution(b))

	alice := buildIdentity(t, "a_smith", "Ms", "Alice Smith")
	bob := buildIdentity(t, "b_jones", "Mr", "Bob Jones")
	require.NoError(t, store.AddIdentity(alice))
	require.NoError(t, store.AddIdentity(bob))

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	from, err := domain.NewAccount("a1", domain.AccountTypeSavings, "11111111", b.SortCode(),
		decimal.RequireFromString("1000"), []*domain.Identity{alice}, createdAt)
	require.NoError(t, err)
	require.NoError(t, b.Host(from))
	alice.AddAccount(from)

	target, err := domain.NewAccount("a2", domain.AccountTypePersonal, "22222222", b.SortCode(),
		decimal.RequireFromString("500"), []*domain.Identity{bob}, createdAt)
	require.NoError(t, err)
	require.NoError(t, b.Host(target))
	bob.AddAccount(target)

	conn, err := domain.NewConnection("c1", alice, target, "rent")
	require.NoError(t, err)
	require.NoError(t, alice.AddConnection(conn))

	tx, err := domain.NewTransaction("t1", from, target,
		decimal.RequireFromString("100"), decimal.RequireFromString("1"), createdAt.Add(time.Hour), "rent")
	require.NoError(t, err)
	b.Post(tx)
	from.Post(tx)
	target.Post(tx)

	return store
}

func TestVaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.vault")
	vault := snapshot.NewVault(path, "correct horse battery staple")

	require.NoError(t, vault.Save(buildLedger(t)))

	loaded, err := vault.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.IdentityCount())
	assert.Equal(t, 1, loaded.InstitutionCount())

	alice, err := loaded.IdentityByUsername("a_smith")
	require.NoError(t, err)
	assert.Equal(t, "Ms Alice Smith", alice.FormatName())
	assert.True(t, alice.VerifyPassword([]byte("Secret#123")), "credential survives the round trip")
	assert.Len(t, alice.Challenges(), domain.ChallengeCount)
	assert.True(t, alice.Challenges()[0].Answer([]byte("blue")))

	require.Len(t, alice.Accounts(), 1)
	from := alice.Accounts()[0]
	assert.True(t, decimal.RequireFromString("899").Equal(from.Balance()))
	assert.True(t, from.VerifyBalance(), "restored history still explains the balance")
	require.Len(t, from.Transactions(), 1)
	assert.Equal(t, "rent", from.Transactions()[0].Reference())

	conn, ok := alice.ConnectionTo("a2")
	require.True(t, ok)
	assert.Equal(t, "rent", conn.Reference())

	b, err := loaded.InstitutionBySortCode("12-34-56")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8501").Equal(b.Balance()))
	assert.True(t, b.VerifyBalance())
	assert.Len(t, b.Accounts(), 2)
	assert.Len(t, b.Transactions(), 1)

	// The sender's and receiver's histories share one transaction object.
	bob, err := loaded.IdentityByUsername("b_jones")
	require.NoError(t, err)
	require.Len(t, bob.Accounts(), 1)
	assert.Same(t, from.Transactions()[0], bob.Accounts()[0].Transactions()[0])
}

func TestVaultLockStateSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.vault")
	vault := snapshot.NewVault(path, "pass")

	store := buildLedger(t)
	alice, err := store.IdentityByUsername("a_smith")
	require.NoError(t, err)
	lockedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	alice.Lock(lockedAt)
	alice.Lock(lockedAt)

	require.NoError(t, vault.Save(store))
	loaded, err := vault.Load()
	require.NoError(t, err)

	restored, err := loaded.IdentityByUsername("a_smith")
	require.NoError(t, err)
	assert.Equal(t, 2, restored.LockCount())
	assert.False(t, restored.Unlocked(lockedAt.Add(3*time.Minute)))
	assert.True(t, restored.Unlocked(lockedAt.Add(4*time.Minute)))
}

func TestVaultJointAccountSharedOnDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.vault")
	vault := snapshot.NewVault(path, "pass")

	store := memory.NewStore()
	b, err := domain.NewInstitution("b1", "Sage Bank", "12-34-56",
		decimal.RequireFromString("0.02"), decimal.RequireFromString("0.01"), decimal.RequireFromString("10000"))
	require.NoError(t, err)
	require.NoError(t, store.AddInstitution(b))

	alice := buildIdentity(t, "a_smith", "Ms", "Alice Smith")
	bob := buildIdentity(t, "b_jones", "Mr", "Bob Jones")
	require.NoError(t, store.AddIdentity(alice))
	require.NoError(t, store.AddIdentity(bob))

	joint, err := domain.NewAccount("a1", domain.AccountTypeJoint, "11111111", b.SortCode(),
		decimal.RequireFromString("400"), []*domain.Identity{alice, bob}, time.Now())
	require.NoError(t, err)
	require.NoError(t, b.Host(joint))
	alice.AddAccount(joint)
	bob.AddAccount(joint)

	require.NoError(t, vault.Save(store))
	loaded, err := vault.Load()
	require.NoError(t, err)

	restoredAlice, err := loaded.IdentityByUsername("a_smith")
	require.NoError(t, err)
	restoredBob, err := loaded.IdentityByUsername("b_jones")
	require.NoError(t, err)
	require.Len(t, restoredAlice.Accounts(), 1)
	require.Len(t, restoredBob.Accounts(), 1)

	// The account appears under both holders but decodes to a single object.
	shared := restoredAlice.Accounts()[0]
	assert.Same(t, shared, restoredBob.Accounts()[0])
	require.Len(t, shared.Holders(), 2)
	assert.True(t, shared.HeldBy(restoredAlice.ID()))
	assert.True(t, shared.HeldBy(restoredBob.ID()))

	host, err := loaded.InstitutionBySortCode("12-34-56")
	require.NoError(t, err)
	require.Len(t, host.Accounts(), 1)
	assert.Same(t, shared, host.Accounts()[0])
	assert.True(t, host.VerifyBalance())
}

func TestVaultMissingFileStartsEmpty(t *testing.T) {
	vault := snapshot.NewVault(filepath.Join(t.TempDir(), "absent.vault"), "pass")

	store, err := vault.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, store.IdentityCount())
	assert.Equal(t, 0, store.InstitutionCount())
}

func TestVaultWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.vault")
	require.NoError(t, snapshot.NewVault(path, "right").Save(buildLedger(t)))

	_, err := snapshot.NewVault(path, "wrong").Load()
	assert.Error(t, err)
}

func TestVaultRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.vault")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	_, err := snapshot.NewVault(path, "pass").Load()
	assert.Error(t, err)
}

func TestVaultFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.vault")
	require.NoError(t, snapshot.NewVault(path, "pass").Save(memory.NewStore()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
