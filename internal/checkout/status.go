package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/google/uuid"
)

// Transition applies one vendor-initiated forward step to an order. The
// caller's vendor must own the order's outlet, the target must be the
// immediate successor of the current status, and the database update runs
// under an optimistic current-status check so two racing writers cannot both
// win. On any failure the order is left untouched.
func (s *Service) Transition(ctx context.Context, orderID uuid.UUID, vendorID string, target domain.OrderStatus) (*domain.Order, error) {
	if !target.IsValid() {
		return nil, ErrInvalidTargetStatus
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeVendor(ctx, order, vendorID); err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, &IllegalTransitionError{Current: order.Status, Target: target}
	}

	return s.applyTransition(ctx, order, target, "vendor:"+vendorID)
}

// Cancel moves an order onto the cancellation path (cancelled or refunded).
// It is separate from the vendor forward chain: any pre-delivered order can
// be cancelled, by the owning customer or the owning vendor.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, actor string, target domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanCancelTo(target) {
		return nil, &IllegalTransitionError{Current: order.Status, Target: target}
	}

	return s.applyTransition(ctx, order, target, actor)
}

func (s *Service) applyTransition(ctx context.Context, order *domain.Order, target domain.OrderStatus, changedBy string) (*domain.Order, error) {
	err := s.repo.UpdateOrderStatus(ctx, order.ID, order.Status, target, changedBy)

	var conflict *repository.StatusConflictError
	if errors.As(err, &conflict) {
		// Lost the race: report the transition against the status actually
		// in the database now.
		return nil, &IllegalTransitionError{Current: conflict.Current, Target: target}
	}
	if err != nil {
		return nil, fmt.Errorf("apply status transition: %w", err)
	}

	s.invalidateBatch(order.CheckoutBatchID)

	slog.InfoContext(ctx, "order status changed",
		"order_id", order.ID.String(),
		"from", order.Status.String(),
		"to", target.String(),
		"changed_by", changedBy)

	return s.repo.GetOrder(ctx, order.ID)
}

func (s *Service) authorizeVendor(ctx context.Context, order *domain.Order, vendorID string) error {
	owner, err := s.catalog.OutletVendor(ctx, order.OutletID)
	if err != nil {
		return fmt.Errorf("look up outlet owner: %w", err)
	}
	if owner != vendorID {
		return ErrForbidden
	}
	return nil
}
