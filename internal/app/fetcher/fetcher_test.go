package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/core"
)

func searchItem(hash string, height uint64) string {
	return fmt.Sprintf(`{
		"txhash": "%s",
		"height": "%d",
		"tx": {"body": {"messages": [{"@type": "/cosmos.bank.v1beta1.MsgSend"}]}}
	}`, hash, height)
}

func TestFetchPage_CombinedDialect(t *testing.T) {
	var gotQuery, gotLimit, gotPage, gotOrder string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotLimit = r.URL.Query().Get("pagination.limit")
		gotPage = r.URL.Query().Get("pagination.page")
		gotOrder = r.URL.Query().Get("order_by")

		fmt.Fprintf(w, `{"tx_responses": [%s, %s], "pagination": {"total": "17"}}`,
			searchItem("AAA", 100), searchItem("BBB", 105))
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL, PageSize: 50})

	envelopes, fetched, err := s.FetchPage(context.Background(), "message.sender='cosmos1aaa'", 42, 3)
	require.NoError(t, err)

	assert.Equal(t, "message.sender='cosmos1aaa' AND tx.height>=42", gotQuery)
	assert.Equal(t, "50", gotLimit)
	assert.Equal(t, "3", gotPage)
	assert.Equal(t, "1", gotOrder)

	// the page's raw item count, not the backend's overall total
	assert.Equal(t, 2, fetched)
	require.Len(t, envelopes, 2)
	assert.Equal(t, "AAA", envelopes[0].Hash)
	assert.Equal(t, uint64(100), envelopes[0].Height)
	assert.Equal(t, "BBB", envelopes[1].Hash)
	require.Len(t, envelopes[0].Messages, 1)
}

func TestFetchPage_EventsFallback(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("query") != "" {
			http.Error(w, "unknown query parameter", http.StatusBadRequest)
			return
		}

		// dialects never mix within one attempt
		events := r.URL.Query()["events"]
		require.Equal(t, []string{"message.sender='cosmos1aaa'", "tx.height>=0"}, events)

		fmt.Fprintf(w, `{"tx_responses": [%s], "total": "1"}`, searchItem("AAA", 100))
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL})

	envelopes, fetched, err := s.FetchPage(context.Background(), "message.sender='cosmos1aaa'", 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, fetched)
	require.Len(t, envelopes, 1)
	assert.Equal(t, "AAA", envelopes[0].Hash)
}

func TestFetchPage_BothDialectsRejected(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "no", http.StatusNotImplemented)
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL})

	envelopes, fetched, err := s.FetchPage(context.Background(), "f", 0, 1)
	require.NoError(t, err)
	assert.Empty(t, envelopes)
	assert.Zero(t, fetched)
	assert.Equal(t, 2, calls)
}

func TestFetchPage_TransientErrorPropagates(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL})

	_, _, err := s.FetchPage(context.Background(), "f", 0, 1)
	require.Error(t, err)

	// a transient failure is not a dialect rejection, no fallback attempt
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusServiceUnavailable, core.StatusCode(err))
}

func TestFetchPage_ParallelTxsMerged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"tx_responses": [{"txhash": "AAA", "height": "100"}],
			"txs": [{"body": {"messages": [{"@type": "/cosmos.bank.v1beta1.MsgSend"}]}}],
			"total": "1"
		}`)
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL})

	envelopes, _, err := s.FetchPage(context.Background(), "f", 0, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	require.Len(t, envelopes[0].Messages, 1)
}

func TestFetchPage_MalformedItemsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tx_responses": [{"height": "1"}, %s], "total": "2"}`,
			searchItem("BBB", 2))
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL})

	envelopes, fetched, err := s.FetchPage(context.Background(), "f", 0, 1)
	require.NoError(t, err)

	// the skipped item still counts toward the page
	assert.Equal(t, 2, fetched)
	require.Len(t, envelopes, 1)
	assert.Equal(t, "BBB", envelopes[0].Hash)
}

func TestFetchBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/balances/cosmos1aaa", r.URL.Path)
		fmt.Fprint(w, `{"balances": [
			{"denom": "uatom", "amount": "123456789012345678901234567890"},
			{"denom": "bad", "amount": "x"},
			{"denom": "uosmo", "amount": "5"}
		]}`)
	}))
	defer srv.Close()

	s := NewService(&app.FetcherConfig{BaseURL: srv.URL})

	coins, err := s.FetchBalance(context.Background(), "cosmos1aaa")
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "123456789012345678901234567890uatom", coins[0].String())
	assert.Equal(t, "5uosmo", coins[1].String())
}
