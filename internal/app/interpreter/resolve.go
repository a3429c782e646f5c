package interpreter

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/stakewatch/stakewatch/internal/core"
)

// Priority-ordered candidate field names per logical field. Message
// families disagree on naming; the first present non-empty candidate
// wins. Both snake_case and camelCase spellings occur in the wild.
var (
	senderKeys = []string{
		"from_address", "fromAddress",
		"sender", "signer", "voter", "granter", "depositor", "proposer",
		"delegator_address", "delegatorAddress",
		"executor",
	}
	recipientKeys = []string{
		"to_address", "toAddress",
		"receiver", "recipient", "grantee",
	}
	delegatorKeys = []string{"delegator_address", "delegatorAddress"}
	validatorKeys = []string{
		"validator_address", "validatorAddress",
		"validator_src_address", "validatorSrcAddress",
	}
	dstValidatorKeys = []string{"validator_dst_address", "validatorDstAddress"}

	amountKeys = []string{"amount", "token", "value"}
)

type msgBody map[string]any

func decodeMsg(raw json.RawMessage) msgBody {
	var m msgBody
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// typeTag is the trailing path segment of the fully-qualified type
// identifier, without the conventional Msg prefix:
// "/cosmos.staking.v1beta1.MsgDelegate" -> "Delegate".
func (m msgBody) typeTag() string {
	t := m.scalar("@type")
	if t == "" {
		t = m.scalar("type")
	}
	if i := strings.LastIndexAny(t, "./"); i >= 0 {
		t = t[i+1:]
	}
	if strings.HasPrefix(t, "Msg") && len(t) > 3 {
		t = t[3:]
	}
	return t
}

// scalar returns the first present candidate as a string, stringifying
// JSON numbers.
func (m msgBody) scalar(keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func (m msgBody) sub(key string) msgBody {
	if v, ok := m[key].(map[string]any); ok {
		return msgBody(v)
	}
	return nil
}

func (m msgBody) list(key string) []msgBody {
	v, ok := m[key].([]any)
	if !ok {
		return nil
	}
	ret := make([]msgBody, 0, len(v))
	for _, item := range v {
		if sub, ok := item.(map[string]any); ok {
			ret = append(ret, msgBody(sub))
		}
	}
	return ret
}

// coins resolves the first present candidate into coins, accepting an
// array-of-coin, a single coin object, or a "123denom" string.
func (m msgBody) coins(keys ...string) []core.Coin {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			var ret []core.Coin
			for _, item := range v {
				if sub, ok := item.(map[string]any); ok {
					if c, ok := coinFromObject(msgBody(sub)); ok {
						ret = append(ret, c)
					}
				}
			}
			if len(ret) > 0 {
				return ret
			}
		case map[string]any:
			if c, ok := coinFromObject(msgBody(v)); ok {
				return []core.Coin{c}
			}
		case string:
			if c, err := core.ParseCoin(v); err == nil {
				return []core.Coin{c}
			}
		}
	}
	return nil
}

func coinFromObject(m msgBody) (core.Coin, bool) {
	denom := m.scalar("denom")
	amount, ok := new(big.Int).SetString(m.scalar("amount"), 10)
	if denom == "" || !ok {
		return core.Coin{}, false
	}
	return core.Coin{Denom: denom, Amount: amount}, true
}

func resolveMsg(m msgBody) core.MsgInfo {
	return core.MsgInfo{
		Type:         m.typeTag(),
		Sender:       m.scalar(senderKeys...),
		Recipient:    m.scalar(recipientKeys...),
		Delegator:    m.scalar(delegatorKeys...),
		Validator:    m.scalar(validatorKeys...),
		DstValidator: m.scalar(dstValidatorKeys...),
		Amount:       m.coins(amountKeys...),
	}
}

func meaningfulType(tag string) bool {
	t := strings.ToLower(tag)
	return strings.Contains(t, "delegat") ||
		strings.Contains(t, "send") ||
		strings.Contains(t, "transfer")
}

// resolveMultiSend takes sender, recipient and amount from the first
// input/output entries rather than the top-level body.
func resolveMultiSend(m msgBody) core.MsgInfo {
	info := core.MsgInfo{Type: "MultiSend"}
	if inputs := m.list("inputs"); len(inputs) > 0 {
		info.Sender = inputs[0].scalar("address")
	}
	if outputs := m.list("outputs"); len(outputs) > 0 {
		info.Recipient = outputs[0].scalar("address")
		info.Amount = outputs[0].coins("coins")
	}
	return info
}

func resolveVote(m msgBody) core.MsgInfo {
	info := resolveMsg(m)
	info.AmountText = fmt.Sprintf("Prop #%s: %s",
		m.scalar("proposal_id", "proposalId"),
		voteOption(m["option"]))
	return info
}

var voteOptionNames = []string{"EMPTY", "YES", "ABSTAIN", "NO", "NO_WITH_VETO"}

func voteOption(v any) string {
	switch t := v.(type) {
	case float64:
		return voteOptionByIndex(int(t))
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return voteOptionByIndex(n)
		}
		name := strings.TrimPrefix(strings.ToUpper(t), "VOTE_OPTION_")
		if name == "UNSPECIFIED" {
			return "EMPTY"
		}
		for _, known := range voteOptionNames {
			if name == known {
				return name
			}
		}
	}
	return "UNKNOWN"
}

func voteOptionByIndex(n int) string {
	if n < 0 || n >= len(voteOptionNames) {
		return "UNKNOWN"
	}
	return voteOptionNames[n]
}

type packetData struct {
	Amount   string `json:"amount"`
	Denom    string `json:"denom"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

// resolvePacket decodes a base64 cross-chain packet payload to recover
// the original sender, recipient and amount, which override the outer
// message's fields.
func resolvePacket(m msgBody) (core.MsgInfo, bool) {
	packet := m.sub("packet")
	if packet == nil {
		return core.MsgInfo{}, false
	}

	decoded, err := base64.StdEncoding.DecodeString(packet.scalar("data"))
	if err != nil {
		return core.MsgInfo{}, false
	}

	var p packetData
	if err := json.Unmarshal(decoded, &p); err != nil {
		return core.MsgInfo{}, false
	}

	info := core.MsgInfo{
		Type:      IBCReceiveTag,
		Sender:    p.Sender,
		Recipient: p.Receiver,
	}
	if c, err := core.ParseCoin(p.Amount + p.Denom); err == nil {
		info.Amount = []core.Coin{c}
	}
	return info, true
}
