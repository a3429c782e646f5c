package notifier

import (
	"bytes"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/core"
)

var _ app.NotifierService = (*Service)(nil)

type Service struct {
	*app.NotifierConfig

	client *http.Client
}

func NewService(cfg *app.NotifierConfig) *Service {
	var s = new(Service)

	s.NotifierConfig = cfg

	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	s.client = &http.Client{Timeout: s.Timeout}

	return s
}

type payload struct {
	Address string         `json:"address"`
	Record  *core.TxRecord `json:"record"`
}

// Notify posts the record to the configured webhook on its own
// goroutine. Fire-and-forget: failures are logged and swallowed, they
// must never fail a crawl.
func (s *Service) Notify(acc *core.Account, rec *core.TxRecord) {
	if s.WebhookURL == "" {
		return
	}

	go func() {
		body, err := json.Marshal(&payload{Address: acc.Address, Record: rec})
		if err != nil {
			log.Warn().Err(err).Str("hash", rec.Hash).Msg("encode notification")
			return
		}

		resp, err := s.client.Post(s.WebhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Warn().Err(err).Str("hash", rec.Hash).Msg("deliver notification")
			return
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Warn().Int("status", resp.StatusCode).Str("hash", rec.Hash).Msg("notification rejected")
		}
	}()
}
