// Package retry provides bounded retries for idempotent operations
// against external collaborators (command-menu registration, message
// edits). Non-idempotent sends are never retried.
package retry

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Default policy for framework-level operations: a few quick attempts,
// then give up and leave the previous state as-is.
const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
)

// Do runs fn up to attempts times, sleeping delay between failures.
// It returns nil as soon as one attempt succeeds, or the last error
// once the attempts are exhausted.
func Do(attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			log.Debug().Err(err).Int("attempt", i+1).Msg("Retrying operation")
			time.Sleep(delay)
		}
	}
	return err
}
