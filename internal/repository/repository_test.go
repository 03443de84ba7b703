package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Itskartike/globaleats/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	seedCatalog(t, repo)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

// seedCatalog inserts the vendor/brand/outlet/menu-item rows the order
// foreign keys point at.
func seedCatalog(t *testing.T, repo *Repository) {
	t.Helper()

	stmts := []string{
		`INSERT INTO vendors (id, name) VALUES ('vendor-1', 'GlobalEats Kitchens')`,
		`INSERT INTO brands (id, vendor_id, name) VALUES
			('brand-pizza', 'vendor-1', 'Pizza Palace'),
			('brand-noodles', 'vendor-1', 'Noodle House')`,
		`INSERT INTO outlets (id, vendor_id, name, latitude, longitude, delivery_radius_km,
			base_delivery_fee, minimum_order_amount) VALUES
			('outlet-1', 'vendor-1', 'Downtown Kitchen', 28.61, 77.21, 5, 25.00, 100.00),
			('outlet-2', 'vendor-1', 'Uptown Kitchen', 28.65, 77.22, 5, 30.00, 100.00)`,
		`INSERT INTO brand_outlets (brand_id, outlet_id) VALUES
			('brand-pizza', 'outlet-1'),
			('brand-noodles', 'outlet-2')`,
		`INSERT INTO menu_items (id, brand_id, name, price) VALUES
			('item-margherita', 'brand-pizza', 'Margherita', 75.00),
			('item-ramen', 'brand-noodles', 'Ramen', 50.00)`,
		`INSERT INTO addresses (id, user_id, latitude, longitude) VALUES
			('addr-1', 'user-1', 28.62, 77.21)`,
	}
	for _, stmt := range stmts {
		_, err := repo.db.Exec(stmt)
		require.NoError(t, err)
	}
}

func testOrder(batchID uuid.UUID, brandID, outletID, menuItemID string) *domain.Order {
	return &domain.Order{
		ID:              uuid.New(),
		CheckoutBatchID: batchID,
		UserID:          "user-1",
		OutletID:        outletID,
		BrandID:         brandID,
		AddressID:       "addr-1",
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentMethodCard,
		Subtotal:        decimal.NewFromInt(150),
		DeliveryFee:     decimal.NewFromInt(25),
		TaxAmount:       decimal.RequireFromString("7.50"),
		TotalAmount:     decimal.RequireFromString("182.50"),
		Lines: []domain.OrderLine{
			{MenuItemID: menuItemID, Quantity: 2, UnitPrice: decimal.NewFromInt(75), LineTotal: decimal.NewFromInt(150)},
		},
	}
}

func TestCreateOrderBatch_PersistsAllOrders(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	batchID := uuid.New()
	orders := []*domain.Order{
		testOrder(batchID, "brand-pizza", "outlet-1", "item-margherita"),
		testOrder(batchID, "brand-noodles", "outlet-2", "item-ramen"),
	}

	err := repo.CreateOrderBatch(ctx, orders)
	require.NoError(t, err)

	// Order numbers are assigned during the insert and are unique.
	assert.NotEmpty(t, orders[0].OrderNumber)
	assert.NotEqual(t, orders[0].OrderNumber, orders[1].OrderNumber)

	got, err := repo.GetBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// The batch reads back in cart order.
	assert.Equal(t, orders[0].ID, got[0].ID)
	assert.Equal(t, orders[1].ID, got[1].ID)
	assert.True(t, got[0].TotalAmount.Equal(decimal.RequireFromString("182.50")))
	require.Len(t, got[0].Lines, 1)
	assert.Equal(t, "item-margherita", got[0].Lines[0].MenuItemID)
	assert.NotZero(t, got[0].Lines[0].ID)
}

func TestCreateOrderBatch_Atomicity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	batchID := uuid.New()
	good := testOrder(batchID, "brand-pizza", "outlet-1", "item-margherita")
	// Second order carries a line pointing at a menu item that does not
	// exist, so its insert violates the foreign key mid-transaction.
	bad := testOrder(batchID, "brand-noodles", "outlet-2", "item-vanished")

	err := repo.CreateOrderBatch(ctx, []*domain.Order{good, bad})
	require.Error(t, err)

	// Nothing from the batch survived, not even the valid first order.
	var count int
	require.NoError(t, repo.db.QueryRow(
		`SELECT COUNT(*) FROM orders WHERE checkout_batch_id = $1`, batchID).Scan(&count))
	assert.Equal(t, 0, count)

	require.NoError(t, repo.db.QueryRow(
		`SELECT COUNT(*) FROM order_events WHERE aggregate_id = $1`, batchID.String()).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestCreateOrderBatch_WritesOutboxEvents(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	batchID := uuid.New()
	orders := []*domain.Order{
		testOrder(batchID, "brand-pizza", "outlet-1", "item-margherita"),
		testOrder(batchID, "brand-noodles", "outlet-2", "item-ramen"),
	}
	require.NoError(t, repo.CreateOrderBatch(ctx, orders))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, batchID.String(), ev.AggregateID)
		assert.Equal(t, "order_created", ev.EventType)
		assert.Contains(t, string(ev.Payload), `"status":"pending"`)
	}

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	remaining, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, events[1].ID, remaining[0].ID)
}

func TestUpdateOrderStatus_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := testOrder(uuid.New(), "brand-pizza", "outlet-1", "item-margherita")
	require.NoError(t, repo.CreateOrderBatch(ctx, []*domain.Order{order}))

	err := repo.UpdateOrderStatus(ctx, order.ID,
		domain.OrderStatusPending, domain.OrderStatusConfirmed, "vendor:vendor-1")
	require.NoError(t, err)

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)

	// The transition wrote its own outbox event alongside the creation one.
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "order_status_changed", events[1].EventType)
	assert.Contains(t, string(events[1].Payload), `"to_status":"confirmed"`)
}

func TestUpdateOrderStatus_Conflict(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := testOrder(uuid.New(), "brand-pizza", "outlet-1", "item-margherita")
	require.NoError(t, repo.CreateOrderBatch(ctx, []*domain.Order{order}))

	// The expected status is stale: the row is still pending.
	err := repo.UpdateOrderStatus(ctx, order.ID,
		domain.OrderStatusConfirmed, domain.OrderStatusPreparing, "vendor:vendor-1")

	var conflict *StatusConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.OrderStatusPending, conflict.Current)

	// The losing update must not have touched the row.
	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateOrderStatus(context.Background(), uuid.New(),
		domain.OrderStatusPending, domain.OrderStatusConfirmed, "vendor:vendor-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByUserID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	mine := testOrder(uuid.New(), "brand-pizza", "outlet-1", "item-margherita")
	require.NoError(t, repo.CreateOrderBatch(ctx, []*domain.Order{mine}))

	other := testOrder(uuid.New(), "brand-noodles", "outlet-2", "item-ramen")
	other.UserID = "user-2"
	require.NoError(t, repo.CreateOrderBatch(ctx, []*domain.Order{other}))

	orders, err := repo.ListOrdersByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	none, err := repo.ListOrdersByUserID(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond)

	_, err := repo.GetOrder(ctx, uuid.New())
	assert.Error(t, err)
}
