package core

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Envelope is one raw transaction as returned by the indexer API,
// before interpretation. Transient: it is folded into a TxRecord and
// only its Raw bytes are persisted.
type Envelope struct {
	Hash     string
	Height   uint64
	Time     time.Time
	Messages []json.RawMessage
	Events   []Event
	Raw      []byte
}

type Event struct {
	Type       string      `json:"type"`
	Attributes []EventAttr `json:"attributes"`
}

type EventAttr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attr returns the first attribute with the given key.
func (e *Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

type envelopeJSON struct {
	TxHash    string `json:"txhash"`
	Height    string `json:"height"`
	Timestamp string `json:"timestamp"`
	Logs      []struct {
		Events []Event `json:"events"`
	} `json:"logs"`
	Events []Event `json:"events"`
	Tx     struct {
		Body struct {
			Messages []json.RawMessage `json:"messages"`
		} `json:"body"`
	} `json:"tx"`
}

// UnmarshalEnvelope decodes one backend response item. Event groups
// from the per-message logs and the flat top-level event list are
// merged into one ordered list.
func UnmarshalEnvelope(raw []byte) (*Envelope, error) {
	var item envelopeJSON
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	if item.TxHash == "" {
		return nil, errors.New("envelope without txhash")
	}

	env := &Envelope{
		Hash:     item.TxHash,
		Messages: item.Tx.Body.Messages,
		Raw:      raw,
	}
	if item.Height != "" {
		h, err := strconv.ParseUint(item.Height, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "envelope height %q", item.Height)
		}
		env.Height = h
	}
	if item.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, item.Timestamp); err == nil {
			env.Time = ts
		}
	}
	for _, l := range item.Logs {
		env.Events = append(env.Events, l.Events...)
	}
	env.Events = append(env.Events, item.Events...)

	return env, nil
}

// MsgInfo is the canonical view of one message after field resolution.
// Any field may stay empty: unresolvable is a valid outcome, not an
// error.
type MsgInfo struct {
	Type         string
	Sender       string
	Recipient    string
	Delegator    string
	Validator    string
	DstValidator string

	// Amount holds resolved coins; AmountText holds a synthesized
	// display string for messages without a coin amount (votes,
	// infrastructure no-ops).
	Amount     []Coin
	AmountText string
}

// ParsedTx is the interpreter's output for one envelope.
type ParsedTx struct {
	// Type is the envelope-level tag. Composite is set when the tag was
	// synthesized from the envelope shape (batch classifications,
	// nested execution, cross-chain receive) and must win over a tag
	// recomputed from individual messages.
	Type      string
	Composite bool

	Messages []MsgInfo

	// Amount/Coins/Recipient are derived from the emitted event log.
	// Authoritative marks families whose message bodies never carry the
	// settled amount (withdrawals, cross-chain receives): for those the
	// log-derived amount overrides any body-summed one.
	Amount        string
	Coins         []Coin
	Recipient     string
	Authoritative bool
}
