package fetcher

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stakewatch/stakewatch/internal/app"
)

var _ app.FetcherService = (*Service)(nil)
var _ app.BalanceSource = (*Service)(nil)

type Service struct {
	*app.FetcherConfig

	client *http.Client
}

func NewService(cfg *app.FetcherConfig) *Service {
	var s = new(Service)

	s.FetcherConfig = cfg

	// validate config
	if s.PageSize <= 0 {
		s.PageSize = 100
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}

	s.client = &http.Client{Timeout: s.Timeout}

	return s
}

func heightClause(minHeight uint64) string {
	return fmt.Sprintf("tx.height>=%d", minHeight)
}

func (s *Service) pageParams(q url.Values, page int) url.Values {
	q.Set("pagination.limit", strconv.Itoa(s.PageSize))
	q.Set("pagination.page", strconv.Itoa(page))
	q.Set("order_by", "1")
	return q
}
