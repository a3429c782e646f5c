package app

import (
	"github.com/stakewatch/stakewatch/internal/core"
)

type InterpreterConfig struct {
	// FeeCollectorAddr is the module account collecting fees; it must
	// never be reported as a user-facing recipient.
	FeeCollectorAddr string
}

type InterpreterService interface {
	// Interpret normalizes one raw envelope. Best-effort: decode
	// failures degrade to unset fields, never to an error.
	Interpret(env *core.Envelope) *core.ParsedTx
}
