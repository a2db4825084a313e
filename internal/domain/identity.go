package domain

import (
	"fmt"
	"strings"
	"time"
)

// ChallengeCount is the number of security challenges every identity enrolls.
const ChallengeCount = 3

// Identity is a registered user: a unique username, a password credential,
// exactly three security challenges, held accounts, outbound connections and
// lockout state.
type Identity struct {
	id         string
	username   string
	credential *Credential
	challenges []*SecurityChallenge
	title      string
	fullName   string
	accounts   []*Account
	conns      []*Connection
	unlockAt   time.Time
	lockCount  int
}

func NewIdentity(id, username string, credential *Credential, challenges []*SecurityChallenge, title, fullName string) (*Identity, error) {
	if !ValidUsername(username) {
		return nil, fmt.Errorf("username %q must be 3-20 word characters", username)
	}
	if credential == nil {
		return nil, fmt.Errorf("identity credential is required")
	}
	if len(challenges) != ChallengeCount {
		return nil, fmt.Errorf("identity requires exactly %d security challenges, got %d", ChallengeCount, len(challenges))
	}
	if !ValidHonorific(title) {
		return nil, fmt.Errorf("title %q is invalid", title)
	}
	if !ValidFullName(fullName) {
		return nil, fmt.Errorf("full name %q must be at least two capitalized words", fullName)
	}
	return &Identity{
		id:         id,
		username:   username,
		credential: credential,
		challenges: challenges,
		title:      title,
		fullName:   fullName,
	}, nil
}

func (u *Identity) ID() string       { return u.id }
func (u *Identity) Username() string { return u.username }
func (u *Identity) Title() string    { return u.title }
func (u *Identity) FullName() string { return u.fullName }

// FormatName renders the display form, e.g. "Mr John A. Smith".
func (u *Identity) FormatName() string {
	parts := strings.Fields(u.fullName)
	var sb strings.Builder
	sb.WriteString(u.title)
	sb.WriteByte(' ')
	sb.WriteString(parts[0])
	for _, middle := range parts[1 : len(parts)-1] {
		sb.WriteByte(' ')
		sb.WriteString(middle[:1])
		sb.WriteByte('.')
	}
	sb.WriteByte(' ')
	sb.WriteString(parts[len(parts)-1])
	return sb.String()
}

// PayeeName renders the payee-discovery form, e.g. "MR J SMITH".
func (u *Identity) PayeeName() string {
	parts := strings.Fields(u.fullName)
	return strings.ToUpper(fmt.Sprintf("%s %s %s", u.title, parts[0][:1], parts[len(parts)-1]))
}

func (u *Identity) MatchesPayeeName(name string) bool {
	return strings.EqualFold(name, u.PayeeName())
}

func (u *Identity) Accounts() []*Account {
	return u.accounts
}

func (u *Identity) HasAccounts() bool {
	return len(u.accounts) > 0
}

// OpenAccounts returns the identity's accounts that can currently transact.
func (u *Identity) OpenAccounts() []*Account {
	var out []*Account
	for _, a := range u.accounts {
		if a.Status() == AccountStatusActive {
			out = append(out, a)
		}
	}
	return out
}

// HasOpenAccountOfType reports whether a non-closed account of the given
// type is already held. At most one open account per type is permitted.
func (u *Identity) HasOpenAccountOfType(t AccountType) bool {
	for _, a := range u.accounts {
		if a.Type() == t && a.Status() != AccountStatusClosed {
			return true
		}
	}
	return false
}

func (u *Identity) AddAccount(a *Account) {
	u.accounts = append(u.accounts, a)
}

func (u *Identity) Connections() []*Connection {
	return u.conns
}

// ConnectionTo returns the connection targeting the given account, if any.
func (u *Identity) ConnectionTo(accountID string) (*Connection, bool) {
	for _, c := range u.conns {
		if c.Target().ID() == accountID {
			return c, true
		}
	}
	return nil, false
}

// AddConnection stores a connection, rejecting a second connection to the
// same target account.
func (u *Identity) AddConnection(c *Connection) error {
	if _, ok := u.ConnectionTo(c.Target().ID()); ok {
		return ErrConnectionExists
	}
	u.conns = append(u.conns, c)
	return nil
}

func (u *Identity) VerifyPassword(attempt []byte) bool {
	return u.credential.Verify(attempt)
}

func (u *Identity) PasswordAttemptsRemaining() bool {
	return u.credential.AttemptsRemaining()
}

func (u *Identity) ResetPasswordAttempts() {
	u.credential.ResetAttempts()
}

// CredentialState exposes the password credential's persistable form.
func (u *Identity) CredentialState() CredentialState {
	return u.credential.State()
}

func (u *Identity) Challenges() []*SecurityChallenge {
	return u.challenges
}

// Unlocked reports whether the identity is usable at the given time. An
// elapsed unlock timestamp unlocks automatically; there is no manual unlock.
func (u *Identity) Unlocked(now time.Time) bool {
	return !now.Before(u.unlockAt)
}

func (u *Identity) UnlockAt() time.Time {
	return u.unlockAt
}

func (u *Identity) LockCount() int {
	return u.lockCount
}

// Lock fires the lockout transition: the lock counter is incremented and the
// identity stays locked for lockCount squared minutes, so successive
// lockouts last 1, 4, 9, 16, ... minutes.
func (u *Identity) Lock(now time.Time) time.Duration {
	u.lockCount++
	d := time.Duration(u.lockCount*u.lockCount) * time.Minute
	u.unlockAt = now.Add(d)
	return d
}

// ResetLockCount clears the lockout escalation after a successful login.
func (u *Identity) ResetLockCount() {
	u.lockCount = 0
}

// RestoreIdentity rebuilds persisted identity state; accounts and
// connections are reattached separately once decoded.
func RestoreIdentity(id, username string, credential *Credential, challenges []*SecurityChallenge, title, fullName string, unlockAt time.Time, lockCount int) (*Identity, error) {
	u, err := NewIdentity(id, username, credential, challenges, title, fullName)
	if err != nil {
		return nil, err
	}
	u.unlockAt = unlockAt
	u.lockCount = lockCount
	return u, nil
}
