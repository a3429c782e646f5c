package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"
	"github.com/uptrace/go-clickhouse/ch"
)

type TxCategory string

const (
	// CategoryWallet records a transaction's relevance to the account
	// as a wallet: it sent, delegated or received funds.
	CategoryWallet = TxCategory("wallet")
	// CategoryValidator records relevance to the account's validator
	// role: someone delegated to, redelegated to or unbonded from it.
	CategoryValidator = TxCategory("validator")
)

type TxDirection string

const (
	DirectionIn   = TxDirection("IN")
	DirectionOut  = TxDirection("OUT")
	DirectionSelf = TxDirection("SELF")
)

// TxRecord is the canonical, persisted representation of one
// transaction's relevance to one tracked account. A transaction may
// yield one wallet record and one validator record for the same
// account; (account_id, category, hash) is unique.
type TxRecord struct {
	ch.CHModel    `ch:"tx_records,partition:category,msg_type" json:"-"`
	bun.BaseModel `bun:"table:tx_records" json:"-"`

	ID        uint64     `ch:"-" bun:",pk,autoincrement" json:"id"`
	AccountID uint64     `ch:",pk" bun:",notnull" json:"account_id"`
	Category  TxCategory `ch:",lc" bun:"type:tx_category,notnull" json:"category"`

	Hash   string `ch:",pk" bun:",notnull" json:"hash"`
	Height uint64 `ch:",pk" json:"height"`

	// MsgType may be a synthesized composite such as
	// "Delegate(batch:3)" or "Exec/Delegate".
	MsgType string `ch:",lc" json:"msg_type"`

	// Amount is the display string, possibly composite when distinct
	// sub-amounts must survive for display ("500uatom (R:300+C:200)").
	// AmountRaw/Denom carry the primary integer quantity when the
	// record aggregates to a single denomination.
	Amount    string      `json:"amount,omitempty"`
	AmountRaw *bunbig.Int `ch:"-" bun:"type:numeric,nullzero" json:"amount_raw,omitempty"`
	Denom     string      `ch:",lc" bun:",nullzero" json:"denom,omitempty"`

	Sender       string `bun:",nullzero" json:"sender,omitempty"`
	Recipient    string `bun:",nullzero" json:"recipient,omitempty"`
	Delegator    string `bun:",nullzero" json:"delegator,omitempty"`
	Validator    string `bun:",nullzero" json:"validator,omitempty"`
	DstValidator string `bun:",nullzero" json:"dst_validator,omitempty"`

	// Direction is set on wallet-context records only.
	Direction TxDirection `ch:",lc" bun:",nullzero" json:"direction,omitempty"`

	Price  float64   `json:"price,omitempty"`
	TxTime time.Time `ch:",pk" bun:",nullzero" json:"tx_time"`

	// RawEnvelope retains the original backend item for audit and
	// offline reparsing; normalized fields are recomputable from it
	// without touching the network.
	RawEnvelope []byte `ch:"-" bun:"type:jsonb" json:"-"`

	CreatedAt time.Time `ch:"-" bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type TxRecordFilter struct {
	AccountID uint64     `form:"account_id"`
	Address   string     `form:"address"`
	Category  TxCategory `form:"category"`
	MsgType   string     `form:"msg_type"`
	OrderBy   string     `form:"-"`
}

type TxRepository interface {
	AddRecord(ctx context.Context, rec *TxRecord) error

	RecordExists(ctx context.Context, accountID uint64, category TxCategory, hash string) (bool, error)

	// LatestHeight is the resume cursor: the highest indexed height for
	// the account across both categories, 0 when nothing is indexed.
	LatestHeight(ctx context.Context, accountID uint64) (uint64, error)

	GetRecords(ctx context.Context, f *TxRecordFilter, offset, limit int) ([]*TxRecord, error)

	// GetRecordsAfter pages records by ascending id for batch reparse.
	GetRecordsAfter(ctx context.Context, afterID uint64, limit int) ([]*TxRecord, error)

	// UpdateParsed overwrites only the normalized fields, never the
	// identity or the retained raw envelope. Both stores are refreshed.
	UpdateParsed(ctx context.Context, rec *TxRecord) error
}
