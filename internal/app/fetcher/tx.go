package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/stakewatch/internal/core"
)

// FetchPage issues the transaction search in the combined-query dialect
// first. Backend nodes diverge on the accepted parameter format: on a
// 400/500/501 the same search is retried exactly once in the repeated
// events= dialect. If both dialects are rejected the filter is given up
// on for now and an empty page is returned, which terminates the
// caller's pagination loop. Dialects are never mixed within one attempt.
func (s *Service) FetchPage(ctx context.Context, filter string, minHeight uint64, page int) ([]*core.Envelope, int, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("%s AND %s", filter, heightClause(minHeight)))

	envelopes, total, err := s.search(ctx, s.pageParams(q, page))
	if err == nil {
		return envelopes, total, nil
	}

	switch core.StatusCode(err) {
	case http.StatusBadRequest, http.StatusInternalServerError, http.StatusNotImplemented:
	default:
		return nil, 0, err
	}

	q = url.Values{}
	q.Add("events", filter)
	q.Add("events", heightClause(minHeight))

	envelopes, total, err = s.search(ctx, s.pageParams(q, page))
	if err != nil {
		log.Warn().Err(err).
			Str("filter", filter).
			Uint64("min_height", minHeight).
			Msg("both query dialects rejected, skipping filter")
		return nil, 0, nil
	}
	return envelopes, total, nil
}

type searchResponse struct {
	TxResponses []json.RawMessage `json:"tx_responses"`
	Txs         []json.RawMessage `json:"txs"`
}

func (s *Service) search(ctx context.Context, q url.Values) ([]*core.Envelope, int, error) {
	body, err := s.get(ctx, "/transactions", q)
	if err != nil {
		return nil, 0, err
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, 0, errors.Wrap(err, "decode search response")
	}

	envelopes := make([]*core.Envelope, 0, len(res.TxResponses))
	for i, raw := range res.TxResponses {
		item, err := mergeTxBody(raw, res.Txs, i)
		if err != nil {
			log.Warn().Err(err).Int("item", i).Msg("skipping malformed search item")
			continue
		}
		env, err := core.UnmarshalEnvelope(item)
		if err != nil {
			log.Warn().Err(err).Int("item", i).Msg("skipping undecodable envelope")
			continue
		}
		envelopes = append(envelopes, env)
	}

	// the raw item count, not the decoded one: skipped items must still
	// count toward page fullness
	return envelopes, len(res.TxResponses), nil
}

// mergeTxBody folds the parallel txs array into its tx_responses twin.
// Some backends return the transaction body separately from its
// metadata; others embed it under "tx" already.
func mergeTxBody(raw json.RawMessage, txs []json.RawMessage, i int) (json.RawMessage, error) {
	var item map[string]json.RawMessage
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, errors.Wrap(err, "decode search item")
	}
	if _, ok := item["tx"]; ok || i >= len(txs) {
		return raw, nil
	}

	item["tx"] = txs[i]
	merged, err := json.Marshal(item)
	if err != nil {
		return nil, errors.Wrap(err, "merge search item")
	}
	return merged, nil
}

func (s *Service) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &core.StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	return body, nil
}
