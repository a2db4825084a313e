package main

import (
	"context"
	"errors"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/retail-ledger/internal/adapter/snapshot"
	"github.com/api-sage/retail-ledger/internal/adapter/terminal"
	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/logger"
	"github.com/api-sage/retail-ledger/internal/usecase/services"
)

type app struct {
	store        *memory.Store
	vault        *snapshot.Vault
	prompter     *terminal.Prompter
	auth         *services.AuthService
	institutions *services.InstitutionService
	accounts     *services.AccountService
	transfers    *services.TransferService

	session *domain.Identity
}

func (a *app) run(ctx context.Context) {
	for a.step(ctx) {
		if err := a.vault.Save(a.store); err != nil {
			logger.Error("saving ledger snapshot failed", err, nil)
			a.prompter.Say("WARNING: ledger could not be saved!")
		}
	}
}

// step shows the menu for the current session state, dispatches one action
// and reports whether the loop should continue.
func (a *app) step(ctx context.Context) bool {
	var options []string
	populated := a.store.IdentityCount() > 0 && a.store.InstitutionCount() > 0

	if a.session == nil {
		options = append(options, "Add User", "Add Bank")
		if populated {
			options = append(options, "View Users", "View Banks", "User Login")
		}
	} else {
		options = append(options, "View User Info", "Add Account")
		if a.session.HasAccounts() {
			options = append(options, "View Account Info", "Change Account Status", "Make Internal Transaction")
			if a.store.IdentityCount() > 1 {
				options = append(options, "Make External Transaction")
			}
		}
		options = append(options, "Logout")
	}
	options = append(options, "EXIT")

	choice, err := a.prompter.Choose(menuTitle(a.session), options)
	if err != nil || choice < 0 {
		return false
	}

	switch options[choice] {
	case "Add User":
		_, err = a.auth.RegisterIdentity(ctx)
	case "Add Bank":
		_, err = a.institutions.RegisterInstitution(ctx)
	case "View Users":
		for _, u := range a.store.Identities() {
			a.prompter.Say(identitySummary(u))
		}
	case "View Banks":
		for _, b := range a.store.Institutions() {
			a.prompter.Say(renderInstitution(b))
		}
	case "User Login":
		var identity *domain.Identity
		identity, err = a.auth.Login(ctx)
		if err == nil {
			a.session = identity
			a.prompter.Say("LOGGED IN AS " + identity.Username())
		}
	case "View User Info":
		a.prompter.Say(renderIdentity(a.session))
	case "Add Account":
		_, err = a.accounts.OpenAccount(ctx, a.session)
	case "View Account Info":
		for _, acct := range a.session.Accounts() {
			a.prompter.Say(renderAccount(acct))
		}
	case "Change Account Status":
		err = a.accounts.ChangeStatus(ctx, a.session)
	case "Make Internal Transaction":
		_, err = a.transfers.TransferInternal(ctx, a.session)
	case "Make External Transaction":
		_, err = a.transfers.TransferExternal(ctx, a.session)
	case "Logout":
		a.session = nil
	case "EXIT":
		return false
	}

	if err != nil && !errors.Is(err, domain.ErrCancelled) {
		a.prompter.Say("ERROR: " + err.Error())
	}
	return true
}

func menuTitle(session *domain.Identity) string {
	if session == nil {
		return "Admin Options"
	}
	return session.FormatName() + "'s Options"
}
