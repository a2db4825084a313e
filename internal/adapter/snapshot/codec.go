package snapshot

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/registry"
)

// The in-memory graph is cyclic (identities hold accounts, accounts hold
// their identities, transactions reference accounts), so it is flattened to
// id references before encoding and relinked on decode.

type graphState struct {
	Institutions []institutionState `json:"institutions"`
	Identities   []identityState    `json:"identities"`
	Accounts     []accountState     `json:"accounts"`
	Transactions []transactionState `json:"transactions"`
}

type identityState struct {
	ID          string                  `json:"id"`
	Username    string                  `json:"username"`
	Credential  domain.CredentialState  `json:"credential"`
	Challenges  []domain.ChallengeState `json:"challenges"`
	Title       string                  `json:"title"`
	FullName    string                  `json:"fullName"`
	AccountIDs  []string                `json:"accountIds"`
	Connections []connectionState       `json:"connections"`
	UnlockAt    time.Time               `json:"unlockAt"`
	LockCount   int                     `json:"lockCount"`
}

type connectionState struct {
	ID              string `json:"id"`
	TargetAccountID string `json:"targetAccountId"`
	Reference       string `json:"reference"`
}

type accountState struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Number         string          `json:"number"`
	SortCode       string          `json:"sortCode"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	Status         string          `json:"status"`
	HolderIDs      []string        `json:"holderIds"`
	TransactionIDs []string        `json:"transactionIds"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type institutionState struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	SortCode       string          `json:"sortCode"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	ChargeRate     decimal.Decimal `json:"chargeRate"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	AccountIDs     []string        `json:"accountIds"`
	TransactionIDs []string        `json:"transactionIds"`
}

type transactionState struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Charge        decimal.Decimal `json:"charge"`
	Timestamp     time.Time       `json:"timestamp"`
	Reference     string          `json:"reference"`
}

func encodeGraph(store *memory.Store) graphState {
	var state graphState

	// Joint accounts appear under every holder and transactions under every
	// involved party; each is encoded exactly once.
	seenAccounts := registry.New[*domain.Account]()
	seenTransactions := registry.New[*domain.Transaction]()

	collectTransactions := func(transactions []*domain.Transaction) {
		for _, t := range transactions {
			if !seenTransactions.Add(t) {
				continue
			}
			state.Transactions = append(state.Transactions, transactionState{
				ID:            t.ID(),
				FromAccountID: t.From().ID(),
				ToAccountID:   t.To().ID(),
				Amount:        t.Amount(),
				Charge:        t.Charge(),
				Timestamp:     t.Timestamp(),
				Reference:     t.Reference(),
			})
		}
	}

	for _, u := range store.Identities() {
		rec := identityState{
			ID:         u.ID(),
			Username:   u.Username(),
			Credential: u.CredentialState(),
			Title:      u.Title(),
			FullName:   u.FullName(),
			UnlockAt:   u.UnlockAt(),
			LockCount:  u.LockCount(),
		}
		for _, q := range u.Challenges() {
			rec.Challenges = append(rec.Challenges, q.State())
		}
		for _, a := range u.Accounts() {
			rec.AccountIDs = append(rec.AccountIDs, a.ID())
			if seenAccounts.Contains(a.ID()) {
				continue
			}
			seenAccounts.Add(a)

			holderIDs := make([]string, 0, len(a.Holders()))
			for _, h := range a.Holders() {
				holderIDs = append(holderIDs, h.ID())
			}
			transactionIDs := make([]string, 0, len(a.Transactions()))
			for _, t := range a.Transactions() {
				transactionIDs = append(transactionIDs, t.ID())
			}
			collectTransactions(a.Transactions())

			state.Accounts = append(state.Accounts, accountState{
				ID:             a.ID(),
				Type:           string(a.Type()),
				Number:         a.Number(),
				SortCode:       a.SortCode(),
				InitialBalance: a.InitialBalance(),
				Balance:        a.Balance(),
				Status:         string(a.Status()),
				HolderIDs:      holderIDs,
				TransactionIDs: transactionIDs,
				CreatedAt:      a.CreatedAt(),
			})
		}
		for _, c := range u.Connections() {
			rec.Connections = append(rec.Connections, connectionState{
				ID:              c.ID(),
				TargetAccountID: c.Target().ID(),
				Reference:       c.Reference(),
			})
		}
		state.Identities = append(state.Identities, rec)
	}

	for _, b := range store.Institutions() {
		accountIDs := make([]string, 0, len(b.Accounts()))
		for _, a := range b.Accounts() {
			accountIDs = append(accountIDs, a.ID())
		}
		transactionIDs := make([]string, 0, len(b.Transactions()))
		for _, t := range b.Transactions() {
			transactionIDs = append(transactionIDs, t.ID())
		}
		collectTransactions(b.Transactions())

		state.Institutions = append(state.Institutions, institutionState{
			ID:             b.ID(),
			Name:           b.Name(),
			SortCode:       b.SortCode(),
			InterestRate:   b.InterestRate(),
			ChargeRate:     b.ChargeRate(),
			InitialBalance: b.InitialBalance(),
			Balance:        b.Balance(),
			AccountIDs:     accountIDs,
			TransactionIDs: transactionIDs,
		})
	}

	return state
}

func decodeGraph(state graphState) (*memory.Store, error) {
	identities := registry.New[*domain.Identity]()
	for _, rec := range state.Identities {
		challenges := make([]*domain.SecurityChallenge, 0, len(rec.Challenges))
		for _, qs := range rec.Challenges {
			q, err := domain.RestoreSecurityChallenge(qs)
			if err != nil {
				return nil, fmt.Errorf("restoring challenge %s: %w", qs.ID, err)
			}
			challenges = append(challenges, q)
		}
		u, err := domain.RestoreIdentity(
			rec.ID, rec.Username,
			domain.RestoreCredential(rec.Credential),
			challenges, rec.Title, rec.FullName,
			rec.UnlockAt, rec.LockCount,
		)
		if err != nil {
			return nil, fmt.Errorf("restoring identity %s: %w", rec.Username, err)
		}
		if !identities.Add(u) {
			return nil, fmt.Errorf("duplicate identity id %s", rec.ID)
		}
	}

	accounts := registry.New[*domain.Account]()
	for _, rec := range state.Accounts {
		holders := make([]*domain.Identity, 0, len(rec.HolderIDs))
		for _, id := range rec.HolderIDs {
			h, ok := identities.Get(id)
			if !ok {
				return nil, fmt.Errorf("account %s references unknown holder %s", rec.Number, id)
			}
			holders = append(holders, h)
		}
		a, err := domain.RestoreAccount(
			rec.ID, domain.AccountType(rec.Type), rec.Number, rec.SortCode,
			rec.InitialBalance, rec.Balance, domain.AccountStatus(rec.Status),
			holders, rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("restoring account %s: %w", rec.Number, err)
		}
		if !accounts.Add(a) {
			return nil, fmt.Errorf("duplicate account id %s", rec.ID)
		}
	}

	transactions := registry.New[*domain.Transaction]()
	for _, rec := range state.Transactions {
		from, ok := accounts.Get(rec.FromAccountID)
		if !ok {
			return nil, fmt.Errorf("transaction %s references unknown account %s", rec.ID, rec.FromAccountID)
		}
		to, ok := accounts.Get(rec.ToAccountID)
		if !ok {
			return nil, fmt.Errorf("transaction %s references unknown account %s", rec.ID, rec.ToAccountID)
		}
		t, err := domain.NewTransaction(rec.ID, from, to, rec.Amount, rec.Charge, rec.Timestamp, rec.Reference)
		if err != nil {
			return nil, fmt.Errorf("restoring transaction %s: %w", rec.ID, err)
		}
		if !transactions.Add(t) {
			return nil, fmt.Errorf("duplicate transaction id %s", rec.ID)
		}
	}

	resolveTransactions := func(ids []string) ([]*domain.Transaction, error) {
		out := make([]*domain.Transaction, 0, len(ids))
		for _, id := range ids {
			t, ok := transactions.Get(id)
			if !ok {
				return nil, fmt.Errorf("unknown transaction %s", id)
			}
			out = append(out, t)
		}
		return out, nil
	}

	orderedAccounts := accounts.Items()
	for i, rec := range state.Accounts {
		history, err := resolveTransactions(rec.TransactionIDs)
		if err != nil {
			return nil, fmt.Errorf("account %s history: %w", rec.Number, err)
		}
		orderedAccounts[i].AttachHistory(history)
	}

	store := memory.NewStore()

	for _, rec := range state.Institutions {
		b, err := domain.RestoreInstitution(rec.ID, rec.Name, rec.SortCode, rec.InterestRate, rec.ChargeRate, rec.InitialBalance, rec.Balance)
		if err != nil {
			return nil, fmt.Errorf("restoring institution %s: %w", rec.Name, err)
		}
		hosted := make([]*domain.Account, 0, len(rec.AccountIDs))
		for _, id := range rec.AccountIDs {
			a, ok := accounts.Get(id)
			if !ok {
				return nil, fmt.Errorf("institution %s references unknown account %s", rec.Name, id)
			}
			hosted = append(hosted, a)
		}
		history, err := resolveTransactions(rec.TransactionIDs)
		if err != nil {
			return nil, fmt.Errorf("institution %s history: %w", rec.Name, err)
		}
		b.AttachHosted(hosted, history)
		if err := store.AddInstitution(b); err != nil {
			return nil, err
		}
	}

	orderedIdentities := identities.Items()
	for i, rec := range state.Identities {
		u := orderedIdentities[i]
		for _, id := range rec.AccountIDs {
			a, ok := accounts.Get(id)
			if !ok {
				return nil, fmt.Errorf("identity %s references unknown account %s", rec.Username, id)
			}
			u.AddAccount(a)
		}
		for _, cs := range rec.Connections {
			target, ok := accounts.Get(cs.TargetAccountID)
			if !ok {
				return nil, fmt.Errorf("connection %s references unknown account %s", cs.ID, cs.TargetAccountID)
			}
			c, err := domain.NewConnection(cs.ID, u, target, cs.Reference)
			if err != nil {
				return nil, fmt.Errorf("restoring connection %s: %w", cs.ID, err)
			}
			if err := u.AddConnection(c); err != nil {
				return nil, fmt.Errorf("restoring connection %s: %w", cs.ID, err)
			}
		}
		if err := store.AddIdentity(u); err != nil {
			return nil, err
		}
	}

	return store, nil
}
