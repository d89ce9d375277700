package id

import (
	cryptorand "crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(cryptorand.Reader, 0)
)

// NewRun returns a time-sortable id tagging every log line of one persist or
// ingest run.
func NewRun() string {
	return newAt(time.Now())
}

func newAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}

// Time extracts the creation time of a run id.
func Time(runID string) (time.Time, error) {
	u, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run id %q: %w", runID, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
