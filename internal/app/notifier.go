package app

import (
	"time"

	"github.com/stakewatch/stakewatch/internal/core"
)

type NotifierConfig struct {
	// WebhookURL receives new-record notifications; empty disables
	// dispatch entirely.
	WebhookURL string
	Timeout    time.Duration
}

// NotifierService delivers fire-and-forget alerts about newly indexed
// records. Never awaited: delivery failures must not fail a crawl.
type NotifierService interface {
	Notify(acc *core.Account, rec *core.TxRecord)
}
