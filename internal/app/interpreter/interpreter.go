package interpreter

import (
	"fmt"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/core"
)

var _ app.InterpreterService = (*Service)(nil)

// IBCReceiveTag is the fixed type tag forced onto cross-chain receive
// messages whose packet payload decoded successfully.
const IBCReceiveTag = "IBCReceive"

type Service struct {
	*app.InterpreterConfig
}

func NewService(cfg *app.InterpreterConfig) *Service {
	return &Service{InterpreterConfig: cfg}
}

// Interpret normalizes one raw envelope into canonical per-message
// facts plus envelope-level log-derived fields. Every decode step is
// best-effort: a malformed message degrades to unset fields and the
// event-log fallback still runs.
func (s *Service) Interpret(env *core.Envelope) *core.ParsedTx {
	parsed := new(core.ParsedTx)

	msgs := make([]msgBody, 0, len(env.Messages))
	for _, raw := range env.Messages {
		if m := decodeMsg(raw); m != nil {
			msgs = append(msgs, m)
		}
	}

	switch {
	case len(msgs) == 0:
		// nothing decodable, the event log is the only source left
	case len(msgs) == 1:
		s.interpretSingle(parsed, msgs[0])
	default:
		s.interpretBatch(parsed, msgs)
	}

	s.resolveFromEvents(parsed, env)

	return parsed
}

func (s *Service) interpretSingle(parsed *core.ParsedTx, m msgBody) {
	switch m.typeTag() {
	case "Exec":
		if inner := pickInnerMsg(m.list("msgs")); inner != nil {
			info := resolveMsg(inner)
			info.Type = "Exec/" + info.Type
			parsed.Type = info.Type
			parsed.Composite = true
			parsed.Messages = []core.MsgInfo{info}
			return
		}

	case "MultiSend":
		info := resolveMultiSend(m)
		parsed.Type = info.Type
		parsed.Messages = []core.MsgInfo{info}
		return

	case "Vote", "VoteWeighted":
		info := resolveVote(m)
		parsed.Type = info.Type
		parsed.Messages = []core.MsgInfo{info}
		return

	case "RecvPacket":
		if info, ok := resolvePacket(m); ok {
			parsed.Type = info.Type
			parsed.Composite = true
			parsed.Authoritative = true
			parsed.Amount = core.FormatCoins(info.Amount)
			parsed.Coins = info.Amount
			parsed.Recipient = info.Recipient
			parsed.Messages = []core.MsgInfo{info}
			return
		}
	}

	info := resolveMsg(m)
	parsed.Type = info.Type
	parsed.Messages = []core.MsgInfo{info}
}

func (s *Service) interpretBatch(parsed *core.ParsedTx, msgs []msgBody) {
	infos := make([]core.MsgInfo, 0, len(msgs))
	for _, m := range msgs {
		infos = append(infos, resolveMsg(m))
	}
	parsed.Messages = infos

	var rewards, commissions, updates int
	for _, info := range infos {
		switch info.Type {
		case "WithdrawDelegatorReward":
			rewards++
		case "WithdrawValidatorCommission":
			commissions++
		case "UpdateClient":
			updates++
		}
	}

	switch {
	case rewards+commissions == len(infos):
		// withdrawal bodies never carry the settled amount, the event
		// log fallback fills it in
		if len(infos) == 2 && rewards == 1 && commissions == 1 {
			parsed.Type = "BatchWithdraw(Reward+Commission)"
		} else {
			parsed.Type = fmt.Sprintf("BatchWithdraw(%d)", len(infos))
		}
		parsed.Composite = true

	case updates == len(infos):
		parsed.Type = fmt.Sprintf("BatchUpdateClient(%d)", len(infos))
		parsed.Composite = true
		for i := range parsed.Messages {
			parsed.Messages[i].AmountText = "-"
		}

	default:
		parsed.Type = infos[0].Type
	}
}

// pickInnerMsg chooses which wrapped message represents a nested
// authorized execution: the first meaningful one, or the first overall.
func pickInnerMsg(inner []msgBody) msgBody {
	if len(inner) == 0 {
		return nil
	}
	for _, m := range inner {
		if meaningfulType(m.typeTag()) {
			return m
		}
	}
	return inner[0]
}
