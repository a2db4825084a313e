package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultSnapshotPath = "ledger.vault"
const defaultPassphrase = "550e8400-e29b-41d4-a716-48465144r0d7"
const defaultPasswordMaxAttempts = 3
const defaultAnswerMaxAttempts = 5
const defaultHashIterations = 600000

type Config struct {
	SnapshotPath        string
	SnapshotPassphrase  string
	PasswordMaxAttempts int
	AnswerMaxAttempts   int
	HashIterations      int
	QuestionCatalogPath string
	Debug               bool
}

func Load() (Config, error) {
	cfg := Config{
		SnapshotPath:        defaultSnapshotPath,
		SnapshotPassphrase:  defaultPassphrase,
		PasswordMaxAttempts: defaultPasswordMaxAttempts,
		AnswerMaxAttempts:   defaultAnswerMaxAttempts,
		HashIterations:      defaultHashIterations,
	}

	if v := strings.TrimSpace(os.Getenv("LEDGER_SNAPSHOT_PATH")); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("LEDGER_SNAPSHOT_PASSPHRASE"); v != "" {
		cfg.SnapshotPassphrase = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_QUESTION_CATALOG")); v != "" {
		cfg.QuestionCatalogPath = v
	}
	cfg.Debug = strings.EqualFold(strings.TrimSpace(os.Getenv("LEDGER_DEBUG")), "true")

	var err error
	if cfg.PasswordMaxAttempts, err = intEnv("LEDGER_PASSWORD_MAX_ATTEMPTS", cfg.PasswordMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.AnswerMaxAttempts, err = intEnv("LEDGER_ANSWER_MAX_ATTEMPTS", cfg.AnswerMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.HashIterations, err = intEnv("LEDGER_HASH_ITERATIONS", cfg.HashIterations); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, value)
	}
	return value, nil
}
