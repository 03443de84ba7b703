// Package catalog exposes the read-side lookups checkout consumes: outlet
// candidates per brand, pinned-outlet validation, menu-item availability,
// address resolution and outlet ownership. The catalog itself (brands,
// menus, outlets) is authored elsewhere; this package only consults it.
package catalog

import (
	"context"
	"errors"

	"github.com/Itskartike/globaleats/domain"
)

var (
	ErrBrandNotFound   = errors.New("brand not found")
	ErrOutletNotFound  = errors.New("outlet not found")
	ErrOutletInactive  = errors.New("outlet is not active")
	ErrBrandNotServed  = errors.New("brand is not served at this outlet")
	ErrAddressNotFound = errors.New("address not found for user")
)

// Lookup resolves outlet candidates and validates catalog references at
// checkout time. Implementations must read live state on every call; the
// resolver depends on candidate freshness.
type Lookup interface {
	// OutletCandidates returns all active outlets with an active link to the
	// brand. An empty slice means the brand is not currently served anywhere.
	OutletCandidates(ctx context.Context, brandID string) ([]domain.OutletCandidate, error)

	// PinnedOutlet fetches one specific outlet for a brand. It fails with
	// ErrOutletNotFound, ErrOutletInactive or ErrBrandNotServed so the
	// caller can report the precise reason the pin cannot be honoured.
	PinnedOutlet(ctx context.Context, brandID, outletID string) (domain.OutletCandidate, error)

	// MissingMenuItems returns the subset of ids that no longer exist as
	// available items of the brand.
	MissingMenuItems(ctx context.Context, brandID string, menuItemIDs []string) ([]string, error)

	// OutletVendor returns the vendor account owning the outlet.
	OutletVendor(ctx context.Context, outletID string) (string, error)
}

// AddressLookup resolves a customer's saved address to a delivery
// coordinate. Addresses are scoped to their owning user.
type AddressLookup interface {
	Coordinate(ctx context.Context, userID, addressID string) (domain.Coordinate, error)
}
