package interpreter

import (
	"fmt"

	"github.com/stakewatch/stakewatch/internal/core"
)

// resolveFromEvents scans the transaction's emitted event log for
// whatever message-body parsing left unresolved. Withdrawal families
// always end up here: their bodies never carry the settled amount.
func (s *Service) resolveFromEvents(parsed *core.ParsedTx, env *core.Envelope) {
	rewards := collectEventCoins(env, "withdraw_rewards")
	commission := collectEventCoins(env, "withdraw_commission")

	// a message that carries its own amount keeps it: a delegation
	// auto-claims pending rewards and emits withdraw events too
	if parsed.Amount == "" && !hasBodyAmount(parsed) && len(rewards)+len(commission) > 0 {
		total := core.SumCoins(append(append([]core.Coin{}, rewards...), commission...))
		display := core.FormatCoins(total)
		if len(rewards) > 0 && len(commission) > 0 {
			r := core.SumCoins(rewards)
			c := core.SumCoins(commission)
			display = fmt.Sprintf("%s (R:%s+C:%s)", display, r[0].Amount, c[0].Amount)
		}
		parsed.Amount = display
		parsed.Coins = total
		parsed.Authoritative = true
	}

	if parsed.Amount == "" && !hasBodyAmount(parsed) {
		if coins := transferCoins(env); len(coins) > 0 {
			parsed.Coins = coins
			parsed.Amount = core.FormatCoins(coins)
		}
	}

	if parsed.Recipient == "" {
		parsed.Recipient = s.eventRecipient(env)
	}
}

// collectEventCoins sums the comma-separated coin lists of every event
// of the given kind.
func collectEventCoins(env *core.Envelope, eventType string) (ret []core.Coin) {
	for i := range env.Events {
		ev := &env.Events[i]
		if ev.Type != eventType {
			continue
		}
		if amount, ok := ev.Attr("amount"); ok {
			ret = append(ret, core.ParseCoins(amount)...)
		}
	}
	return ret
}

func transferCoins(env *core.Envelope) []core.Coin {
	for _, kind := range []string{"transfer", "coin_received"} {
		if coins := collectEventCoins(env, kind); len(coins) > 0 {
			return core.SumCoins(coins)
		}
	}
	return nil
}

// eventRecipient resolves the recipient from transfer/coin_received
// events. The fee collector module account receives a cut of every
// transaction and must never surface as a user-facing recipient.
func (s *Service) eventRecipient(env *core.Envelope) string {
	for i := range env.Events {
		ev := &env.Events[i]

		var key string
		switch ev.Type {
		case "transfer":
			key = "recipient"
		case "coin_received":
			key = "receiver"
		default:
			continue
		}

		// one event may carry several recipient attributes, keep
		// scanning past the fee collector
		for _, a := range ev.Attributes {
			if a.Key == key && a.Value != "" && a.Value != s.FeeCollectorAddr {
				return a.Value
			}
		}
	}
	return ""
}

func hasBodyAmount(parsed *core.ParsedTx) bool {
	for i := range parsed.Messages {
		if len(parsed.Messages[i].Amount) > 0 || parsed.Messages[i].AmountText != "" {
			return true
		}
	}
	return false
}
