package fetcher

import (
	"context"
	"math/big"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/stakewatch/stakewatch/internal/core"
)

type balancesResponse struct {
	Balances []struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"balances"`
}

func (s *Service) FetchBalance(ctx context.Context, address string) ([]core.Coin, error) {
	body, err := s.get(ctx, "/balances/"+url.PathEscape(address), url.Values{})
	if err != nil {
		return nil, err
	}

	var res balancesResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "decode balances response")
	}

	coins := make([]core.Coin, 0, len(res.Balances))
	for _, b := range res.Balances {
		amount, ok := new(big.Int).SetString(b.Amount, 10)
		if !ok {
			continue
		}
		coins = append(coins, core.Coin{Denom: b.Denom, Amount: amount})
	}
	return coins, nil
}
