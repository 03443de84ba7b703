// Package resolver picks the outlet that fulfils a brand group: an explicit
// pin when the customer chose one, otherwise the nearest active outlet whose
// delivery radius covers the customer.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/catalog"
	"github.com/Itskartike/globaleats/internal/geo"
)

// ResolutionError reports why a brand could not be assigned an outlet.
type ResolutionError struct {
	BrandID string
	Reason  domain.FailureReason
	Detail  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve brand %s: %s (%s)", e.BrandID, e.Reason, e.Detail)
}

type Resolver struct {
	catalog catalog.Lookup
}

func New(c catalog.Lookup) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve returns the fulfilment assignment for one brand. Candidates are
// fetched fresh on every call; results are never cached, so availability is
// as current as the catalog. A non-empty pinnedOutletID always wins over the
// search, provided the pin is actually serviceable.
func (r *Resolver) Resolve(ctx context.Context, brandID string, customer domain.Coordinate, pinnedOutletID string) (domain.ResolvedAssignment, error) {
	if pinnedOutletID != "" {
		return r.resolvePinned(ctx, brandID, customer, pinnedOutletID)
	}

	candidates, err := r.catalog.OutletCandidates(ctx, brandID)
	if err != nil {
		return domain.ResolvedAssignment{}, fmt.Errorf("fetch candidates for brand %s: %w", brandID, err)
	}
	if len(candidates) == 0 {
		return domain.ResolvedAssignment{}, &ResolutionError{
			BrandID: brandID,
			Reason:  domain.ReasonBrandNotServed,
			Detail:  "no active outlet serves this brand",
		}
	}

	best := -1
	bestDistance := 0.0
	for i, cand := range candidates {
		d := geo.DistanceKm(customer, cand.Coordinate)
		if d > cand.DeliveryRadiusKm {
			continue
		}
		if best == -1 || closer(d, candidates[i], bestDistance, candidates[best]) {
			best = i
			bestDistance = d
		}
	}

	if best == -1 {
		return domain.ResolvedAssignment{}, &ResolutionError{
			BrandID: brandID,
			Reason:  domain.ReasonNoOutletInRange,
			Detail:  fmt.Sprintf("none of %d outlets deliver to this address", len(candidates)),
		}
	}

	return domain.ResolvedAssignment{
		BrandID:    brandID,
		OutletID:   candidates[best].OutletID,
		DistanceKm: bestDistance,
	}, nil
}

func (r *Resolver) resolvePinned(ctx context.Context, brandID string, customer domain.Coordinate, outletID string) (domain.ResolvedAssignment, error) {
	cand, err := r.catalog.PinnedOutlet(ctx, brandID, outletID)
	switch {
	case errors.Is(err, catalog.ErrOutletNotFound), errors.Is(err, catalog.ErrBrandNotServed):
		return domain.ResolvedAssignment{}, &ResolutionError{
			BrandID: brandID,
			Reason:  domain.ReasonBrandNotServed,
			Detail:  fmt.Sprintf("pinned outlet %s does not serve this brand", outletID),
		}
	case errors.Is(err, catalog.ErrOutletInactive):
		return domain.ResolvedAssignment{}, &ResolutionError{
			BrandID: brandID,
			Reason:  domain.ReasonOutletInactive,
			Detail:  fmt.Sprintf("pinned outlet %s is not active", outletID),
		}
	case err != nil:
		return domain.ResolvedAssignment{}, fmt.Errorf("fetch pinned outlet %s: %w", outletID, err)
	}

	d := geo.DistanceKm(customer, cand.Coordinate)
	if d > cand.DeliveryRadiusKm {
		return domain.ResolvedAssignment{}, &ResolutionError{
			BrandID: brandID,
			Reason:  domain.ReasonNoOutletInRange,
			Detail:  fmt.Sprintf("pinned outlet %s is %.1f km away, radius is %.1f km", outletID, d, cand.DeliveryRadiusKm),
		}
	}

	return domain.ResolvedAssignment{BrandID: brandID, OutletID: cand.OutletID, DistanceKm: d}, nil
}

// closer orders candidates by distance, then preparation time, then outlet
// id, so resolution is deterministic for a fixed candidate set.
func closer(d float64, c domain.OutletCandidate, bestD float64, best domain.OutletCandidate) bool {
	if d != bestD {
		return d < bestD
	}
	if c.PreparationTimeMinutes != best.PreparationTimeMinutes {
		return c.PreparationTimeMinutes < best.PreparationTimeMinutes
	}
	return c.OutletID < best.OutletID
}
