package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"
)

// Account is one tracked ledger account: a wallet address, optionally a
// validator operator address and a distinct reward payout address, plus
// the durable crawl state mutated while syncing.
type Account struct {
	bun.BaseModel `bun:"table:accounts" json:"-"`

	ID            uint64 `bun:",pk,autoincrement" json:"id"`
	Address       string `bun:",unique,notnull" json:"address"`
	ValidatorAddr string `bun:",nullzero" json:"validator_addr,omitempty"`
	RewardAddr    string `bun:",nullzero" json:"reward_addr,omitempty"`
	AlertsEnabled bool   `json:"alerts_enabled"`

	Balance      *bunbig.Int `bun:"type:numeric,nullzero" json:"balance,omitempty"`
	BalanceDenom string      `bun:",nullzero" json:"balance_denom,omitempty"`

	CurrentlySyncing bool      `json:"currently_syncing"`
	LastHeartbeat    time.Time `bun:",nullzero" json:"last_heartbeat,omitempty"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func (a *Account) IsValidator() bool {
	return a.ValidatorAddr != ""
}

// PayoutAddr is where the account receives rewards: the dedicated
// reward address when one is set, the wallet address otherwise.
func (a *Account) PayoutAddr() string {
	if a.RewardAddr != "" {
		return a.RewardAddr
	}
	return a.Address
}

type AccountFilter struct {
	Address        string `form:"address"`
	OnlyValidators bool   `form:"only_validators"`
}

type AccountRepository interface {
	AddAccount(ctx context.Context, acc *Account) error
	GetAccount(ctx context.Context, id uint64) (*Account, error)
	GetAccounts(ctx context.Context, f *AccountFilter, offset, limit int) ([]*Account, error)

	// GetIdleAccounts returns accounts with no crawl currently running.
	GetIdleAccounts(ctx context.Context) ([]*Account, error)

	// SetSyncing flips currently_syncing false -> true with a fresh
	// heartbeat. Returns false when another crawl already owns the
	// account; the compare-and-set is the store-side half of the
	// mutual-exclusion guarantee.
	SetSyncing(ctx context.Context, id uint64) (bool, error)
	ClearSyncing(ctx context.Context, id uint64) error
	UpdateHeartbeat(ctx context.Context, id uint64, at time.Time) error

	// GetStaleSyncing returns accounts still flagged as syncing whose
	// heartbeat is older than the threshold. A missing heartbeat counts
	// as infinitely old.
	GetStaleSyncing(ctx context.Context, olderThan time.Duration) ([]*Account, error)

	UpdateBalance(ctx context.Context, id uint64, amount *bunbig.Int, denom string) error
}
