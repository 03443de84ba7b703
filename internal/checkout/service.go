// Package checkout implements the cart-to-orders decomposition engine: one
// multi-brand cart in, one atomic batch of per-outlet orders out, plus the
// status transitions that drive those orders afterwards.
package checkout

import (
	"context"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/catalog"
	"github.com/Itskartike/globaleats/internal/pricing"
	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// OutletResolver is what the decomposer needs from the resolver.
type OutletResolver interface {
	Resolve(ctx context.Context, brandID string, customer domain.Coordinate, pinnedOutletID string) (domain.ResolvedAssignment, error)
}

// BatchCache caches read views of checkout batches. Implementations must
// return cache.ErrCacheMiss on a miss.
type BatchCache interface {
	Get(ctx context.Context, batchID uuid.UUID) ([]*domain.Order, error)
	Set(ctx context.Context, batchID uuid.UUID, orders []*domain.Order) error
	Delete(ctx context.Context, batchID uuid.UUID) error
}

type Service struct {
	resolver  OutletResolver
	pricer    *pricing.Calculator
	repo      repository.OrderRepository
	catalog   catalog.Lookup
	addresses catalog.AddressLookup
	cache     BatchCache
	sfg       singleflight.Group // prevents batch-view cache stampede
}

func NewService(
	res OutletResolver,
	pricer *pricing.Calculator,
	repo repository.OrderRepository,
	cat catalog.Lookup,
	addresses catalog.AddressLookup,
	batchCache BatchCache,
) *Service {
	return &Service{
		resolver:  res,
		pricer:    pricer,
		repo:      repo,
		catalog:   cat,
		addresses: addresses,
		cache:     batchCache,
	}
}

// Request is one checkout call: the validated cart snapshot plus delivery
// and payment details. DeliveryCoordinate may be nil, in which case the
// coordinate is resolved from the user's saved address.
type Request struct {
	UserID              string
	AddressID           string
	DeliveryCoordinate  *domain.Coordinate
	PaymentMethod       domain.PaymentMethod
	SpecialInstructions string
	Snapshot            domain.CartSnapshot
}

// Result is the persisted outcome of a successful checkout.
type Result struct {
	CheckoutBatchID uuid.UUID
	Orders          []*domain.Order
}
