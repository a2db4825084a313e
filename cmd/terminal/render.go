package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-ledger/internal/domain"
)

// loadLimit bounds how many history entries a detail view shows.
const loadLimit = 5

const dateLayout = "02 Jan 2006 15:04"

func money(amount decimal.Decimal) string {
	return "£" + amount.StringFixed(2)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func identitySummary(u *domain.Identity) string {
	if !u.Unlocked(time.Now()) {
		return fmt.Sprintf("%s [LOCKED until %s]", u.FormatName(), u.UnlockAt().Format(dateLayout))
	}
	n := len(u.Accounts())
	plural := "Accounts"
	if n == 1 {
		plural = "Account"
	}
	return fmt.Sprintf("%s (%d %s)", u.FormatName(), n, plural)
}

func renderIdentity(u *domain.Identity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s Information:", u.FormatName())
	fmt.Fprintf(&sb, "\n - Username: %s", u.Username())
	fmt.Fprintf(&sb, "\n - Title: %s", u.Title())
	fmt.Fprintf(&sb, "\n - Full Name: %s", u.FullName())
	if accounts := u.Accounts(); len(accounts) > 0 {
		sb.WriteString("\n - Accounts:")
		for _, a := range accounts {
			fmt.Fprintf(&sb, "\n    - %s [%s]: %s", a.Type(), a.Number(), money(a.Balance()))
		}
	} else {
		sb.WriteString("\n - No Accounts")
	}
	if conns := u.Connections(); len(conns) > 0 {
		sb.WriteString("\n - Connected Accounts:")
		for _, c := range conns {
			fmt.Fprintf(&sb, "\n    - %s (%s)", c.Target().Number(), c.Target().SortCode())
		}
	} else {
		sb.WriteString("\n - No Connected Accounts")
	}
	return sb.String()
}

func renderAccount(a *domain.Account) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s Account [%s] Information:", a.Type(), a.Number())
	fmt.Fprintf(&sb, "\n > Sort Code: %s", a.SortCode())
	fmt.Fprintf(&sb, "\n > Balance: %s", money(a.Balance()))
	fmt.Fprintf(&sb, "\n > Status: %s", a.Status())
	fmt.Fprintf(&sb, "\n > Created At: %s", a.CreatedAt().Format(dateLayout))
	if recent := a.RecentTransactions(loadLimit); len(recent) > 0 {
		fmt.Fprintf(&sb, "\n > Latest Transactions (%d/%d):", len(recent), len(a.Transactions()))
		for _, t := range recent {
			fmt.Fprintf(&sb, "\n    > %s", renderTransaction(t, a))
		}
	} else {
		sb.WriteString("\n > No Previous Transactions")
	}
	return sb.String()
}

func renderInstitution(b *domain.Institution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s Information:", b.Name())
	fmt.Fprintf(&sb, "\n > Sort Code: %s", b.SortCode())
	fmt.Fprintf(&sb, "\n > Interest Rate: %s", percent(b.InterestRate()))
	fmt.Fprintf(&sb, "\n > Transaction Charge: %s", percent(b.ChargeRate()))
	fmt.Fprintf(&sb, "\n > Balance: %s", money(b.Balance()))
	if recent := b.RecentTransactions(loadLimit); len(recent) > 0 {
		fmt.Fprintf(&sb, "\n > Latest Transactions (%d/%d):", len(recent), len(b.Transactions()))
		for _, t := range recent {
			fmt.Fprintf(&sb, "\n    > %s", renderTransaction(t, nil))
		}
	} else {
		sb.WriteString("\n > No Previous Transactions")
	}
	return sb.String()
}

// renderTransaction renders one movement from the perspective of the given
// account, or from neither side when account is nil.
func renderTransaction(t *domain.Transaction, account *domain.Account) string {
	ending := fmt.Sprintf(" (%s) [@%s]", t.Reference(), t.Timestamp().Format(dateLayout))
	if account != nil {
		if account.ID() == t.From().ID() {
			return fmt.Sprintf("%s (+%s CHARGE) TO [%s]%s", money(t.Amount()), money(t.Charge()), t.To().Number(), ending)
		}
		return fmt.Sprintf("%s FROM [%s]%s", money(t.Amount()), t.From().Number(), ending)
	}
	return fmt.Sprintf("%s (+%s CHARGE) FROM [%s] TO [%s]%s", money(t.Amount()), money(t.Charge()), t.From().Number(), t.To().Number(), ending)
}
