package reconcile

import (
	"errors"
	"fmt"
	"time"
)

// ErrConflict matches every *ConflictError with errors.Is.
var ErrConflict = errors.New("tradestrategy conflict")

// ConflictError reports a stored tradestrategy the engine refuses to reconcile:
// either it carries trades and is missing from the incoming day, or the incoming
// row with the same business key has a different id.
type ConflictError struct {
	Contract string
	Strategy string
	Account  string
	Open     time.Time
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tradestrategy %s/%s/%s on %s: %s",
		e.Contract, e.Strategy, e.Account, e.Open.Format(time.RFC3339), e.Reason)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
