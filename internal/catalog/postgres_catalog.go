package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Itskartike/globaleats/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PostgresCatalog implements Lookup and AddressLookup on the shared
// Postgres database.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const candidateColumns = `o.id, bo.brand_id, o.latitude, o.longitude, o.delivery_radius_km,
	       o.is_active, o.base_delivery_fee, o.minimum_order_amount,
	       o.free_delivery_over, o.preparation_time_minutes`

func (c *PostgresCatalog) OutletCandidates(ctx context.Context, brandID string) ([]domain.OutletCandidate, error) {
	query := `SELECT ` + candidateColumns + `
	          FROM outlets o
	          JOIN brand_outlets bo ON bo.outlet_id = o.id
	          WHERE bo.brand_id = $1 AND bo.is_active AND o.is_active
	          ORDER BY o.id`

	rows, err := c.db.QueryContext(ctx, query, brandID)
	if err != nil {
		return nil, fmt.Errorf("query outlet candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.OutletCandidate
	for rows.Next() {
		cand, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outlet candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return candidates, nil
}

func (c *PostgresCatalog) PinnedOutlet(ctx context.Context, brandID, outletID string) (domain.OutletCandidate, error) {
	// Fetch the outlet regardless of link state first, so an inactive outlet
	// and a missing brand link are reported as distinct failures.
	query := `SELECT o.id, $1::text, o.latitude, o.longitude, o.delivery_radius_km,
	                 o.is_active, o.base_delivery_fee, o.minimum_order_amount,
	                 o.free_delivery_over, o.preparation_time_minutes
	          FROM outlets o
	          WHERE o.id = $2`

	row := c.db.QueryRowContext(ctx, query, brandID, outletID)
	cand, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OutletCandidate{}, ErrOutletNotFound
	}
	if err != nil {
		return domain.OutletCandidate{}, fmt.Errorf("query pinned outlet: %w", err)
	}

	if !cand.IsActive {
		return domain.OutletCandidate{}, ErrOutletInactive
	}

	var serves bool
	linkQuery := `SELECT EXISTS (
	                SELECT 1 FROM brand_outlets
	                WHERE brand_id = $1 AND outlet_id = $2 AND is_active)`
	if err := c.db.QueryRowContext(ctx, linkQuery, brandID, outletID).Scan(&serves); err != nil {
		return domain.OutletCandidate{}, fmt.Errorf("query brand link: %w", err)
	}
	if !serves {
		return domain.OutletCandidate{}, ErrBrandNotServed
	}

	return cand, nil
}

func (c *PostgresCatalog) MissingMenuItems(ctx context.Context, brandID string, menuItemIDs []string) ([]string, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM menu_items
	          WHERE brand_id = $1 AND is_available AND id = ANY($2)`
	rows, err := c.db.QueryContext(ctx, query, brandID, pq.Array(menuItemIDs))
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(menuItemIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan menu item id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	var missing []string
	for _, id := range menuItemIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (c *PostgresCatalog) OutletVendor(ctx context.Context, outletID string) (string, error) {
	var vendorID string
	err := c.db.QueryRowContext(ctx,
		`SELECT vendor_id FROM outlets WHERE id = $1`, outletID).Scan(&vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOutletNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query outlet vendor: %w", err)
	}
	return vendorID, nil
}

func (c *PostgresCatalog) Coordinate(ctx context.Context, userID, addressID string) (domain.Coordinate, error) {
	var coord domain.Coordinate
	err := c.db.QueryRowContext(ctx,
		`SELECT latitude, longitude FROM addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID).Scan(&coord.Latitude, &coord.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinate{}, ErrAddressNotFound
	}
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("query address: %w", err)
	}
	return coord, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (domain.OutletCandidate, error) {
	var (
		cand      domain.OutletCandidate
		threshold sql.NullString
	)
	err := row.Scan(
		&cand.OutletID,
		&cand.BrandID,
		&cand.Coordinate.Latitude,
		&cand.Coordinate.Longitude,
		&cand.DeliveryRadiusKm,
		&cand.IsActive,
		&cand.BaseDeliveryFee,
		&cand.MinimumOrderAmount,
		&threshold,
		&cand.PreparationTimeMinutes,
	)
	if err != nil {
		return domain.OutletCandidate{}, err
	}

	if threshold.Valid {
		over, err := decimal.NewFromString(threshold.String)
		if err != nil {
			return domain.OutletCandidate{}, fmt.Errorf("parse free_delivery_over: %w", err)
		}
		cand.FreeDeliveryOver = &over
	}
	return cand, nil
}
