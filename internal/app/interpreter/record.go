package interpreter

import (
	"fmt"

	"github.com/uptrace/bun/extra/bunbig"

	"github.com/stakewatch/stakewatch/internal/core"
)

// BuildRecord folds one interpreted envelope into a single canonical
// record for the given category, aggregating every message relevant to
// the account in that role. Returns false when nothing qualifies.
func BuildRecord(acc *core.Account, env *core.Envelope, parsed *core.ParsedTx, category core.TxCategory) (*core.TxRecord, bool) {
	var msgs []core.MsgInfo
	switch category {
	case core.CategoryWallet:
		msgs = walletMessages(acc, parsed)
	case core.CategoryValidator:
		msgs = validatorMessages(acc, parsed)
	}
	if len(msgs) == 0 {
		return nil, false
	}

	rec := &core.TxRecord{
		AccountID:   acc.ID,
		Category:    category,
		Hash:        env.Hash,
		Height:      env.Height,
		TxTime:      env.Time,
		RawEnvelope: env.Raw,
	}

	rec.MsgType = recordType(parsed, msgs)

	var all []core.Coin
	for i := range msgs {
		all = append(all, msgs[i].Amount...)
	}
	bodyCoins := core.SumCoins(all)

	switch {
	case parsed.Authoritative && parsed.Amount != "":
		// the log-settled amount is known-more-authoritative for
		// withdrawal and cross-chain families
		rec.Amount = parsed.Amount
		setRawAmount(rec, parsed.Coins)
	case len(bodyCoins) > 0:
		rec.Amount = core.FormatCoins(bodyCoins)
		setRawAmount(rec, bodyCoins)
	case msgs[0].AmountText != "":
		rec.Amount = msgs[0].AmountText
	case parsed.Amount != "":
		rec.Amount = parsed.Amount
		setRawAmount(rec, parsed.Coins)
	}

	first := msgs[0]
	rec.Sender = first.Sender
	rec.Recipient = first.Recipient
	if rec.Recipient == "" {
		rec.Recipient = parsed.Recipient
	}
	rec.Delegator = first.Delegator
	rec.Validator = first.Validator
	rec.DstValidator = first.DstValidator

	if category == core.CategoryWallet {
		rec.Direction = direction(acc, parsed, msgs)
	}

	return rec, true
}

// recordType keeps a synthesized or single-message tag as is; for a
// multi-message record it joins up to two distinct types and marks the
// batch size.
func recordType(parsed *core.ParsedTx, msgs []core.MsgInfo) string {
	if parsed.Composite || len(parsed.Messages) == 1 {
		return parsed.Type
	}

	var (
		distinct []string
		seen     = map[string]bool{}
	)
	for i := range msgs {
		if t := msgs[i].Type; !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}

	tag := distinct[0]
	if len(distinct) > 1 {
		tag = distinct[0] + "+" + distinct[1]
	}
	if len(msgs) > 1 {
		tag = fmt.Sprintf("%s(batch:%d)", tag, len(msgs))
	}
	return tag
}

func setRawAmount(rec *core.TxRecord, coins []core.Coin) {
	if len(coins) == 0 {
		return
	}
	rec.AmountRaw = (*bunbig.Int)(coins[0].Amount)
	rec.Denom = coins[0].Denom
}

func effectiveRecipient(parsed *core.ParsedTx, m *core.MsgInfo) string {
	if m.Recipient != "" {
		return m.Recipient
	}
	return parsed.Recipient
}

// walletMessages selects the messages relevant to the account as a
// wallet: it acted (sender or delegator) or it received, including
// through its payout address.
func walletMessages(acc *core.Account, parsed *core.ParsedTx) (ret []core.MsgInfo) {
	for i := range parsed.Messages {
		m := &parsed.Messages[i]
		out, in := msgFlow(acc, parsed, m)
		if out || in {
			ret = append(ret, *m)
		}
	}
	return ret
}

// validatorMessages selects the messages naming the account's operator
// address as validator or destination validator.
func validatorMessages(acc *core.Account, parsed *core.ParsedTx) (ret []core.MsgInfo) {
	if !acc.IsValidator() {
		return nil
	}
	for i := range parsed.Messages {
		m := &parsed.Messages[i]
		if m.Validator == acc.ValidatorAddr || m.DstValidator == acc.ValidatorAddr {
			ret = append(ret, *m)
		}
	}
	return ret
}

func msgFlow(acc *core.Account, parsed *core.ParsedTx, m *core.MsgInfo) (acted, received bool) {
	// a redelegation counts as outgoing unless it lands on this
	// account's own validator; one between two foreign validators
	// still classifies as outgoing here (known approximation)
	if m.Type == "BeginRedelegate" && (m.Delegator == acc.Address || m.Sender == acc.Address) {
		if acc.IsValidator() && m.DstValidator == acc.ValidatorAddr {
			return false, true
		}
		return true, false
	}

	if m.Sender == acc.Address || m.Delegator == acc.Address {
		acted = true
	}
	r := effectiveRecipient(parsed, m)
	if r != "" && (r == acc.Address || (acc.RewardAddr != "" && r == acc.RewardAddr)) {
		received = true
	}
	return acted, received
}

func direction(acc *core.Account, parsed *core.ParsedTx, msgs []core.MsgInfo) core.TxDirection {
	var acted, received bool
	for i := range msgs {
		out, in := msgFlow(acc, parsed, &msgs[i])
		acted = acted || out
		received = received || in
	}

	switch {
	case acted && received:
		return core.DirectionSelf
	case acted:
		return core.DirectionOut
	case received:
		return core.DirectionIn
	}
	return ""
}
