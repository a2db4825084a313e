package services

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/usecase/service_interfaces"
)

// promptValidated re-prompts until the input satisfies the validator. Empty
// input cancels.
func promptValidated(p service_interfaces.Prompter, prompt string, valid func(string) bool, invalidMessage string) (string, error) {
	for {
		line, err := p.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		if line == "" {
			return "", domain.ErrCancelled
		}
		if !valid(line) {
			p.Say(invalidMessage)
			continue
		}
		return line, nil
	}
}

// promptAmount re-prompts until a positive decimal amount is supplied. Empty
// input cancels.
func promptAmount(p service_interfaces.Prompter, prompt string) (decimal.Decimal, error) {
	for {
		line, err := p.ReadLine(prompt)
		if err != nil {
			return decimal.Zero, err
		}
		if line == "" {
			return decimal.Zero, domain.ErrCancelled
		}
		amount, err := decimal.NewFromString(line)
		if err != nil || !amount.IsPositive() {
			p.Say("Amount must be a positive number!")
			continue
		}
		return amount, nil
	}
}

// promptNonNegative is promptAmount but permitting zero, for opening
// balances and rates.
func promptNonNegative(p service_interfaces.Prompter, prompt string) (decimal.Decimal, error) {
	for {
		line, err := p.ReadLine(prompt)
		if err != nil {
			return decimal.Zero, err
		}
		if line == "" {
			return decimal.Zero, domain.ErrCancelled
		}
		value, err := decimal.NewFromString(line)
		if err != nil || value.IsNegative() {
			p.Say("Value must not be negative!")
			continue
		}
		return value, nil
	}
}

func randomDigits(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(byte('0' + rand.Intn(10)))
	}
	return sb.String()
}

func accountLabel(a *domain.Account) string {
	if a.Status() == domain.AccountStatusActive {
		return fmt.Sprintf("%s [%s]: %s", a.Type(), a.Number(), a.Balance().StringFixed(2))
	}
	return fmt.Sprintf("%s [%s]: %s", a.Type(), a.Status(), a.Balance().StringFixed(2))
}

func accountLabels(accounts []*domain.Account) []string {
	labels := make([]string, len(accounts))
	for i, a := range accounts {
		labels[i] = accountLabel(a)
	}
	return labels
}

func connectionLabel(c *domain.Connection) string {
	return fmt.Sprintf("%s (%s)", c.Target().Number(), c.Target().SortCode())
}

func institutionLabel(b *domain.Institution) string {
	return fmt.Sprintf("%s [%s]", b.Name(), b.SortCode())
}
