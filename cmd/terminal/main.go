package main

import (
	"context"
	"fmt"
	"os"

	"github.com/api-sage/retail-ledger/internal/adapter/snapshot"
	"github.com/api-sage/retail-ledger/internal/adapter/terminal"
	"github.com/api-sage/retail-ledger/internal/config"
	"github.com/api-sage/retail-ledger/internal/logger"
	"github.com/api-sage/retail-ledger/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Debug); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("configuration loaded", logger.Fields{"config": logger.SanitizePayload(cfg)})

	vault := snapshot.NewVault(cfg.SnapshotPath, cfg.SnapshotPassphrase)
	store, err := vault.Load()
	if err != nil {
		logger.Error("loading ledger snapshot failed", err, logger.Fields{"path": cfg.SnapshotPath})
		os.Exit(1)
	}

	questions := services.DefaultQuestionCatalog()
	if cfg.QuestionCatalogPath != "" {
		loaded, err := services.LoadQuestionCatalog(cfg.QuestionCatalogPath)
		if err != nil {
			logger.Error("loading question catalog failed", err, logger.Fields{"path": cfg.QuestionCatalogPath})
			os.Exit(1)
		}
		questions = loaded
	}

	prompter := terminal.NewPrompter(os.Stdin, os.Stdout)
	auth := services.NewAuthService(store, prompter, cfg, questions)

	a := &app{
		store:        store,
		vault:        vault,
		prompter:     prompter,
		auth:         auth,
		institutions: services.NewInstitutionService(store, prompter),
		accounts:     services.NewAccountService(store, prompter, auth),
		transfers:    services.NewTransferService(store, prompter, auth),
	}
	a.run(context.Background())
}
