package app

import (
	"context"

	"github.com/stakewatch/stakewatch/internal/core"
)

type ReparseConfig struct {
	AccountRepo core.AccountRepository
	TxRepo      core.TxRepository
	Interpreter InterpreterService

	BatchSize int
}

type ReparseService interface {
	// Run re-normalizes every stored record from its retained raw
	// envelope, overwriting only the parsed fields. Never re-fetches.
	Run(ctx context.Context) error
}
