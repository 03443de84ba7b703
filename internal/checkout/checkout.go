package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/pricing"
	"github.com/Itskartike/globaleats/internal/resolver"
	"github.com/google/uuid"
)

// Checkout validates the request, decomposes the cart into priced per-outlet
// intents, and commits them as one atomic batch of pending orders. On a
// rejection nothing is persisted and the returned *RejectedError lists every
// failing brand.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if err := req.Snapshot.Validate(); err != nil {
		return nil, err
	}

	coord, err := s.deliveryCoordinate(ctx, req)
	if err != nil {
		return nil, err
	}

	intents, err := s.Decompose(ctx, req.Snapshot, coord)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	orders := make([]*domain.Order, len(intents))
	for i, intent := range intents {
		lines := make([]domain.OrderLine, len(intent.Lines))
		for j, l := range intent.Lines {
			lines[j] = domain.OrderLine{
				MenuItemID:          l.MenuItemID,
				Quantity:            l.Quantity,
				UnitPrice:           l.UnitPrice,
				LineTotal:           l.LineTotal,
				SpecialInstructions: l.SpecialInstructions,
			}
		}
		orders[i] = &domain.Order{
			ID:                  uuid.New(),
			CheckoutBatchID:     batchID,
			UserID:              req.UserID,
			OutletID:            intent.OutletID,
			BrandID:             intent.BrandID,
			AddressID:           req.AddressID,
			Status:              domain.OrderStatusPending,
			PaymentMethod:       req.PaymentMethod,
			Subtotal:            intent.Subtotal,
			DeliveryFee:         intent.DeliveryFee,
			TaxAmount:           intent.TaxAmount,
			TotalAmount:         intent.TotalAmount,
			SpecialInstructions: req.SpecialInstructions,
			Lines:               lines,
		}
	}

	if err := s.repo.CreateOrderBatch(ctx, orders); err != nil {
		return nil, fmt.Errorf("persist checkout batch: %w", err)
	}

	slog.InfoContext(ctx, "checkout batch created",
		"checkout_batch_id", batchID.String(),
		"user_id", req.UserID,
		"orders", len(orders))

	return &Result{CheckoutBatchID: batchID, Orders: orders}, nil
}

// Decompose walks the cart's brand groups in order, resolving an outlet and
// pricing each one. Every failing group is collected and reported together;
// any failure rejects the whole cart so no partial batch ever reaches the
// persistence transaction.
func (s *Service) Decompose(ctx context.Context, snapshot domain.CartSnapshot, coord domain.Coordinate) ([]domain.PricedOrderIntent, error) {
	var (
		intents  []domain.PricedOrderIntent
		failures []domain.BrandFailure
	)

	for _, group := range snapshot.Groups {
		if err := s.validateLines(ctx, group); err != nil {
			return nil, err
		}

		assignment, err := s.resolver.Resolve(ctx, group.BrandID, coord, group.PinnedOutletID)
		if err != nil {
			var resErr *resolver.ResolutionError
			if errors.As(err, &resErr) {
				failures = append(failures, domain.BrandFailure{
					BrandID: resErr.BrandID,
					Reason:  resErr.Reason,
					Detail:  resErr.Detail,
				})
				continue
			}
			return nil, err
		}

		outlet, err := s.catalog.PinnedOutlet(ctx, group.BrandID, assignment.OutletID)
		if err != nil {
			return nil, fmt.Errorf("reload resolved outlet %s: %w", assignment.OutletID, err)
		}

		intent, err := s.pricer.Price(outlet, group.BrandID, group.Lines)
		if err != nil {
			var minErr *pricing.BelowMinimumError
			if errors.As(err, &minErr) {
				failures = append(failures, domain.BrandFailure{
					BrandID: group.BrandID,
					Reason:  domain.ReasonBelowMinimumOrder,
					Detail:  minErr.Error(),
				})
				continue
			}
			return nil, err
		}

		intents = append(intents, intent)
	}

	if len(failures) > 0 {
		return nil, &RejectedError{Failures: failures}
	}
	return intents, nil
}

func (s *Service) validateLines(ctx context.Context, group domain.BrandGroup) error {
	ids := make([]string, len(group.Lines))
	for i, l := range group.Lines {
		ids[i] = l.MenuItemID
	}
	missing, err := s.catalog.MissingMenuItems(ctx, group.BrandID, ids)
	if err != nil {
		return fmt.Errorf("validate menu items for brand %s: %w", group.BrandID, err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("brand %s: menu items no longer available: %s",
			group.BrandID, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) deliveryCoordinate(ctx context.Context, req Request) (domain.Coordinate, error) {
	if req.DeliveryCoordinate != nil {
		if err := req.DeliveryCoordinate.Validate(); err != nil {
			return domain.Coordinate{}, err
		}
		return *req.DeliveryCoordinate, nil
	}
	coord, err := s.addresses.Coordinate(ctx, req.UserID, req.AddressID)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("resolve address %s: %w", req.AddressID, err)
	}
	return coord, nil
}
