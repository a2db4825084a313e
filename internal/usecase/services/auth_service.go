package services

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/config"
	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/logger"
	"github.com/api-sage/retail-ledger/internal/usecase/service_interfaces"
)

// AuthService runs identity enrollment and the login/lockout flow.
type AuthService struct {
	store     *memory.Store
	prompter  service_interfaces.Prompter
	questions []QuestionSpec

	passwordMaxAttempts int
	answerMaxAttempts   int
	hashIterations      int

	now   func() time.Time
	pick  func(n int) int
	newID func() string
}

func NewAuthService(store *memory.Store, prompter service_interfaces.Prompter, cfg config.Config, questions []QuestionSpec) *AuthService {
	if len(questions) < domain.ChallengeCount {
		questions = DefaultQuestionCatalog()
	}
	return &AuthService{
		store:               store,
		prompter:            prompter,
		questions:           questions,
		passwordMaxAttempts: cfg.PasswordMaxAttempts,
		answerMaxAttempts:   cfg.AnswerMaxAttempts,
		hashIterations:      cfg.HashIterations,
		now:                 time.Now,
		pick:                rand.Intn,
		newID:               uuid.NewString,
	}
}

// Login prompts for a username and authenticates it. Empty input cancels.
func (s *AuthService) Login(ctx context.Context) (*domain.Identity, error) {
	username, err := s.prompter.ReadLine("Enter username")
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, domain.ErrCancelled
	}
	return s.Authenticate(ctx, username)
}

// Authenticate runs the login state machine for a candidate username:
// resolve the identity, reject if locked, pass one randomly chosen security
// challenge, then verify the password within a fresh attempt budget. If the
// budget is exhausted the lock transition fires and the identity stays
// locked for lockCount squared minutes.
func (s *AuthService) Authenticate(ctx context.Context, username string) (*domain.Identity, error) {
	identity, err := s.store.IdentityByUsername(username)
	if err != nil {
		logger.Info("auth service login unknown username", logger.Fields{"username": username})
		return nil, err
	}

	if !identity.Unlocked(s.now()) {
		logger.Info("auth service login rejected: locked", logger.Fields{
			"username": username,
			"unlockAt": identity.UnlockAt(),
		})
		return nil, fmt.Errorf("%w until %s", domain.ErrAccountLocked, identity.UnlockAt().Format(time.RFC1123))
	}

	// A fresh login session gets a clean password budget.
	identity.ResetPasswordAttempts()

	if err := s.PassChallenge(ctx, identity); err != nil {
		// Challenge failure never touches the lock counter.
		return nil, err
	}

	for identity.PasswordAttemptsRemaining() {
		attempt, err := s.prompter.ReadSecret("Enter Password")
		if err != nil {
			return nil, err
		}
		if identity.VerifyPassword(attempt) {
			identity.ResetLockCount()
			logger.Info("auth service login success", logger.Fields{"username": username})
			return identity, nil
		}
		s.prompter.Say("Password Incorrect!")
	}

	locked := identity.Lock(s.now())
	logger.Info("auth service identity locked", logger.Fields{
		"username":  username,
		"lockCount": identity.LockCount(),
		"minutes":   locked.Minutes(),
	})
	return nil, fmt.Errorf("%w for %s", domain.ErrAccountLocked, locked)
}

// PassChallenge requires one successfully answered security challenge,
// chosen uniformly at random from the identity's enrolled set. Attempts
// failing the answer-format gate never consume a verification try; empty
// input or an exhausted budget fails the challenge.
func (s *AuthService) PassChallenge(ctx context.Context, identity *domain.Identity) error {
	challenges := identity.Challenges()
	challenge := challenges[s.pick(len(challenges))]

	for {
		if !challenge.AttemptsRemaining() {
			s.prompter.Say("Security Question Incorrectly Answered Too Many Times!")
			return domain.ErrChallengeFailed
		}
		answer, err := s.prompter.ReadSecret("[SQ] Enter " + challenge.Prompt())
		if err != nil {
			return err
		}
		if len(answer) == 0 {
			return domain.ErrChallengeFailed
		}
		if !challenge.MatchesFormat(answer) {
			domain.Wipe(answer)
			s.prompter.Say("Answer Incorrectly Formatted!")
			continue
		}
		if challenge.Answer(answer) {
			return nil
		}
		s.prompter.Say("Answer Incorrect!")
	}
}

// RegisterIdentity enrolls a new identity: unique username, a confirmed
// password, three security challenges from the catalog, honorific and full
// name. Invalid input re-prompts; empty input cancels.
func (s *AuthService) RegisterIdentity(ctx context.Context) (*domain.Identity, error) {
	logger.Info("auth service register identity request", nil)

	var username string
	for {
		var err error
		username, err = s.prompter.ReadLine("Enter Username {3-20 Characters}")
		if err != nil {
			return nil, err
		}
		if username == "" {
			return nil, domain.ErrCancelled
		}
		if !domain.ValidUsername(username) {
			s.prompter.Say("USERNAME incorrectly formatted!")
			continue
		}
		if s.store.UsernameExists(username) {
			s.prompter.Say("USERNAME already exists!")
			continue
		}
		break
	}

	credential, err := s.enrollSecret("Password", domain.ValidPassword, s.passwordMaxAttempts)
	if err != nil {
		return nil, err
	}

	challenges, err := s.enrollChallenges()
	if err != nil {
		return nil, err
	}

	title, err := promptValidated(s.prompter, "Enter Honorific", domain.ValidHonorific, "Honorific incorrectly formatted!")
	if err != nil {
		return nil, err
	}
	fullName, err := promptValidated(s.prompter, "Enter Full Name", domain.ValidFullName, "Full Name must be at least two capitalized words!")
	if err != nil {
		return nil, err
	}

	identity, err := domain.NewIdentity(s.newID(), username, credential, challenges, title, fullName)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddIdentity(identity); err != nil {
		return nil, err
	}

	logger.Info("auth service register identity success", logger.Fields{
		"identityId": identity.ID(),
		"username":   identity.Username(),
	})
	return identity, nil
}

// enrollSecret prompts for a secret matching the validator, confirms it, and
// derives a credential. Both entries are wiped on every path.
func (s *AuthService) enrollSecret(label string, valid func([]byte) bool, maxAttempts int) (*domain.Credential, error) {
	for {
		secret, err := s.prompter.ReadSecret("Enter " + label)
		if err != nil {
			return nil, err
		}
		if len(secret) == 0 {
			return nil, domain.ErrCancelled
		}
		if !valid(secret) {
			domain.Wipe(secret)
			s.prompter.Say(label + " incorrectly formatted!")
			continue
		}
		confirm, err := s.prompter.ReadSecret("Confirm " + label)
		if err != nil {
			domain.Wipe(secret)
			return nil, err
		}
		if !bytes.Equal(secret, confirm) {
			domain.Wipe(secret)
			domain.Wipe(confirm)
			s.prompter.Say("Entries were not the same!")
			continue
		}
		domain.Wipe(confirm)
		return domain.EnrollCredential(secret, s.hashIterations, maxAttempts)
	}
}

// enrollChallenges walks the operator through choosing and answering three
// distinct catalog questions. Each question is offered at most once.
func (s *AuthService) enrollChallenges() ([]*domain.SecurityChallenge, error) {
	remaining := make([]QuestionSpec, len(s.questions))
	copy(remaining, s.questions)

	challenges := make([]*domain.SecurityChallenge, 0, domain.ChallengeCount)
	for len(challenges) < domain.ChallengeCount {
		labels := make([]string, len(remaining))
		for i, spec := range remaining {
			labels[i] = spec.Prompt
		}
		choice, err := s.prompter.Choose(fmt.Sprintf("Choose a Security Question %d/%d", len(challenges)+1, domain.ChallengeCount), labels)
		if err != nil {
			return nil, err
		}
		if choice < 0 {
			return nil, domain.ErrCancelled
		}
		spec := remaining[choice]

		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("catalog pattern %q: %w", spec.Pattern, err)
		}
		answer, err := s.enrollSecret(spec.Prompt, pattern.Match, s.answerMaxAttempts)
		if err != nil {
			return nil, err
		}
		challenge, err := domain.NewSecurityChallenge(s.newID(), spec.Prompt, spec.Pattern, answer)
		if err != nil {
			return nil, err
		}

		challenges = append(challenges, challenge)
		remaining = append(remaining[:choice], remaining[choice+1:]...)
	}
	return challenges, nil
}
