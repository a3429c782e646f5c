package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// slowOpThreshold filters timing noise: an account crawl with nothing
// new to index finishes in milliseconds.
const slowOpThreshold = 250 * time.Millisecond

// Timer logs the duration of an operation once it crosses the slow-op
// threshold. Defer it with the start time captured at entry.
func Timer(start time.Time, op string, args ...any) {
	took := time.Since(start)
	if took < slowOpThreshold {
		return
	}
	log.Debug().
		Str("op", fmt.Sprintf(op, args...)).
		Dur("took", took).
		Msg("slow operation")
}
