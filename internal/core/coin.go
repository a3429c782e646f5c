package core

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Coin is one denominated integer amount. Quantities are kept as big
// integers end to end: token base units routinely overflow int64 and
// must never round through a float.
type Coin struct {
	Denom  string
	Amount *big.Int
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}

var coinRe = regexp.MustCompile(`^([0-9]+)([a-zA-Z/][a-zA-Z0-9/._\-]*)$`)

func ParseCoin(s string) (Coin, error) {
	m := coinRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Coin{}, errors.Errorf("malformed coin %q", s)
	}
	amount, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return Coin{}, errors.Errorf("malformed coin amount %q", m[1])
	}
	return Coin{Denom: m[2], Amount: amount}, nil
}

// ParseCoins splits a comma-separated coin list, dropping entries it
// cannot parse.
func ParseCoins(s string) (ret []Coin) {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCoin(part)
		if err != nil {
			continue
		}
		ret = append(ret, c)
	}
	return ret
}

// SumCoins groups by denomination and sums, preserving first-seen
// denomination order.
func SumCoins(coins []Coin) []Coin {
	var (
		order  []string
		totals = map[string]*big.Int{}
	)
	for _, c := range coins {
		if c.Amount == nil {
			continue
		}
		if t, ok := totals[c.Denom]; ok {
			t.Add(t, c.Amount)
			continue
		}
		totals[c.Denom] = new(big.Int).Set(c.Amount)
		order = append(order, c.Denom)
	}
	ret := make([]Coin, 0, len(order))
	for _, d := range order {
		ret = append(ret, Coin{Denom: d, Amount: totals[d]})
	}
	return ret
}

func FormatCoins(coins []Coin) string {
	parts := make([]string, 0, len(coins))
	for _, c := range coins {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}
