package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/cache"
	"github.com/Itskartike/globaleats/internal/catalog"
	"github.com/Itskartike/globaleats/internal/pricing"
	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/Itskartike/globaleats/internal/resolver"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockCatalog implements catalog.Lookup and catalog.AddressLookup over
// in-memory candidate sets keyed by brand id.
type MockCatalog struct {
	Candidates     map[string][]domain.OutletCandidate
	VendorByOutlet map[string]string
	Missing        []string
	Coord          domain.Coordinate
	CoordErr       error
	CoordCalls     int
}

func (m *MockCatalog) OutletCandidates(_ context.Context, brandID string) ([]domain.OutletCandidate, error) {
	return m.Candidates[brandID], nil
}

func (m *MockCatalog) PinnedOutlet(_ context.Context, brandID, outletID string) (domain.OutletCandidate, error) {
	for _, c := range m.Candidates[brandID] {
		if c.OutletID == outletID {
			if !c.IsActive {
				return domain.OutletCandidate{}, catalog.ErrOutletInactive
			}
			return c, nil
		}
	}
	return domain.OutletCandidate{}, catalog.ErrBrandNotServed
}

func (m *MockCatalog) MissingMenuItems(_ context.Context, _ string, _ []string) ([]string, error) {
	return m.Missing, nil
}

func (m *MockCatalog) OutletVendor(_ context.Context, outletID string) (string, error) {
	v, ok := m.VendorByOutlet[outletID]
	if !ok {
		return "", catalog.ErrOutletNotFound
	}
	return v, nil
}

func (m *MockCatalog) Coordinate(_ context.Context, _, _ string) (domain.Coordinate, error) {
	m.CoordCalls++
	if m.CoordErr != nil {
		return domain.Coordinate{}, m.CoordErr
	}
	return m.Coord, nil
}

// MockOrderRepo implements repository.OrderRepository in memory.
type MockOrderRepo struct {
	CreatedBatch []*domain.Order // captures the batch passed to CreateOrderBatch
	CreateErr    error
	Orders       map[uuid.UUID]*domain.Order
	UpdateErr    error
}

func (m *MockOrderRepo) CreateOrderBatch(_ context.Context, orders []*domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.CreatedBatch = orders
	if m.Orders == nil {
		m.Orders = make(map[uuid.UUID]*domain.Order)
	}
	for i, o := range orders {
		o.OrderNumber = fmt.Sprintf("ORD-TEST-%06d", i)
		m.Orders[o.ID] = o
	}
	return nil
}

func (m *MockOrderRepo) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) GetBatch(_ context.Context, batchID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.Orders {
		if o.CheckoutBatchID == batchID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, expected, target domain.OrderStatus, _ string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != expected {
		return &repository.StatusConflictError{Current: o.Status}
	}
	o.Status = target
	return nil
}

// MockBatchCache always misses unless primed. The service writes to the
// cache from a goroutine, so access is guarded.
type MockBatchCache struct {
	mu      sync.Mutex
	Stored  map[uuid.UUID][]*domain.Order
	Deleted []uuid.UUID
}

func (m *MockBatchCache) Get(_ context.Context, batchID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if orders, ok := m.Stored[batchID]; ok {
		return orders, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockBatchCache) Set(_ context.Context, batchID uuid.UUID, orders []*domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Stored == nil {
		m.Stored = make(map[uuid.UUID][]*domain.Order)
	}
	m.Stored[batchID] = orders
	return nil
}

func (m *MockBatchCache) Delete(_ context.Context, batchID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, batchID)
	return nil
}

// Prime stores a batch view ahead of a read.
func (m *MockBatchCache) Prime(batchID uuid.UUID, orders []*domain.Order) {
	_ = m.Set(context.Background(), batchID, orders)
}

// newTestService wires a Service with the real resolver and pricer over the
// mock catalog, repo and cache.
func newTestService(cat *MockCatalog, repo *MockOrderRepo) *Service {
	pricer := pricing.NewCalculator(decimal.NewFromFloat(0.05), true)
	return NewService(resolver.New(cat), pricer, repo, cat, cat, &MockBatchCache{})
}

func outletAt(id string, latOffset, radiusKm float64) domain.OutletCandidate {
	return domain.OutletCandidate{
		OutletID:           id,
		Coordinate:         domain.Coordinate{Latitude: latOffset, Longitude: 0},
		DeliveryRadiusKm:   radiusKm,
		IsActive:           true,
		BaseDeliveryFee:    decimal.NewFromInt(25),
		MinimumOrderAmount: decimal.NewFromInt(100),
	}
}
