package domain

import (
	"fmt"
	"regexp"
)

// SecurityChallenge is a question/answer second factor. The answer format is
// constrained by a pattern specific to the question; attempts that fail the
// format gate never reach the credential and never consume a verification try.
type SecurityChallenge struct {
	id      string
	prompt  string
	pattern *regexp.Regexp
	answer  *Credential
}

func NewSecurityChallenge(id, prompt, pattern string, answer *Credential) (*SecurityChallenge, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling answer pattern: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("challenge answer credential is required")
	}
	return &SecurityChallenge{id: id, prompt: prompt, pattern: re, answer: answer}, nil
}

func (q *SecurityChallenge) ID() string {
	return q.id
}

func (q *SecurityChallenge) Prompt() string {
	return q.prompt
}

// MatchesFormat reports whether attempt satisfies the question's answer
// pattern. The attempt is not wiped; the caller still owns it.
func (q *SecurityChallenge) MatchesFormat(attempt []byte) bool {
	return q.pattern.Match(attempt)
}

// Answer verifies a format-valid attempt against the stored answer. The
// attempt is wiped by the underlying credential.
func (q *SecurityChallenge) Answer(attempt []byte) bool {
	return q.answer.Verify(attempt)
}

// AttemptsRemaining reports whether further answer tries are permitted.
func (q *SecurityChallenge) AttemptsRemaining() bool {
	return q.answer.AttemptsRemaining()
}

// ChallengeState is the persistable form of a SecurityChallenge.
type ChallengeState struct {
	ID      string          `json:"id"`
	Prompt  string          `json:"prompt"`
	Pattern string          `json:"pattern"`
	Answer  CredentialState `json:"answer"`
}

func (q *SecurityChallenge) State() ChallengeState {
	return ChallengeState{
		ID:      q.id,
		Prompt:  q.prompt,
		Pattern: q.pattern.String(),
		Answer:  q.answer.State(),
	}
}

func RestoreSecurityChallenge(state ChallengeState) (*SecurityChallenge, error) {
	return NewSecurityChallenge(state.ID, state.Prompt, state.Pattern, RestoreCredential(state.Answer))
}
