package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/cache"
	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/google/uuid"
)

// GetBatch returns the sibling orders of one checkout for its owning
// customer, reading through the batch cache. Misses are coalesced with
// singleflight so a popular batch hits the database once.
func (s *Service) GetBatch(ctx context.Context, userID string, batchID uuid.UUID) ([]*domain.Order, error) {
	v, err, _ := s.sfg.Do(batchID.String(), func() (interface{}, error) {
		orders, err := s.cache.Get(ctx, batchID)
		if err == nil {
			return orders, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "batch cache get failed", "error", err)
		}

		orders, err = s.repo.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			return nil, repository.ErrOrderNotFound
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, batchID, orders); err != nil {
				slog.Warn("batch cache set failed", "error", err)
			}
		}()

		return orders, nil
	})
	if err != nil {
		return nil, err
	}

	orders := v.([]*domain.Order)
	if orders[0].UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListOrdersByUserID(ctx, userID)
}

func (s *Service) invalidateBatch(batchID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, batchID); err != nil {
		slog.Warn("batch cache invalidation failed", "batch_id", batchID.String(), "error", err)
	}
}
