package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Itskartike/globaleats/domain"
)

var (
	// ErrForbidden means the caller's vendor does not own the order's outlet.
	ErrForbidden = errors.New("vendor does not own this order's outlet")

	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInvalidTargetStatus  = errors.New("unknown target status")
)

// RejectedError aggregates every per-brand failure of one checkout attempt.
// Checkout is all-or-nothing: a single failing brand rejects the whole batch
// and nothing is persisted.
type RejectedError struct {
	Failures []domain.BrandFailure
}

func (e *RejectedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %s", f.BrandID, f.Reason)
	}
	return "checkout rejected: " + strings.Join(parts, "; ")
}

// IllegalTransitionError reports a status change the state machine forbids,
// along with the order's actual current status so the caller can
// resynchronize its view.
type IllegalTransitionError struct {
	Current domain.OrderStatus
	Target  domain.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.Current, e.Target)
}
