package services

import (
	"context"
	"errors"
	"strings"

	"dotrip/internal/domain"
	"dotrip/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver maps human readable labels to backend ids by fetching the
// reference list and matching case-insensitively. A missing match is
// (0, false, nil); only transport failures are errors.
type Resolver struct {
	API ReferenceAPI
}

// ResolvedIDs are the four reference ids a booking needs.
type ResolvedIDs struct {
	FromCityID    int64
	ToCityID      int64
	VehicleTypeID int64
	TripTypeID    int64
}

// notFoundish reports list failures that count as "no match": a non-2xx
// answer, an empty body or an undecodable list.
func notFoundish(err error) bool {
	if err == nil {
		return false
	}
	if domain.IsTransport(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// ResolveCity matches "Name, State". A label without a state prefers a city
// with an empty state, else the first city with that name.
func (r Resolver) ResolveCity(ctx context.Context, label string) (int64, bool, error) {
	name, state := utils.SplitCityLabel(label)
	if name == "" {
		return 0, false, nil
	}
	cities, err := r.API.ListCities(ctx)
	if notFoundish(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var nameOnly int64
	for _, c := range cities {
		if !strings.EqualFold(strings.TrimSpace(c.Name), name) {
			continue
		}
		cState := strings.TrimSpace(c.State)
		if state != "" {
			if strings.EqualFold(cState, state) {
				return c.ID.Int64(), true, nil
			}
			continue
		}
		if cState == "" {
			return c.ID.Int64(), true, nil
		}
		if nameOnly == 0 {
			nameOnly = c.ID.Int64()
		}
	}
	if nameOnly != 0 {
		return nameOnly, true, nil
	}
	return 0, false, nil
}

func (r Resolver) ResolveVehicleType(ctx context.Context, name string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}
	list, err := r.API.ListVehicleTypes(ctx)
	if notFoundish(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v.Name), name) {
			return v.ID, true, nil
		}
	}
	return 0, false, nil
}

// ResolveTripType matches name or label, then falls back to the fixed table
// when the list is unreachable or has no match.
func (r Resolver) ResolveTripType(ctx context.Context, label string) (int64, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, false, nil
	}
	list, err := r.API.ListTripTypes(ctx)
	if err == nil {
		for _, t := range list {
			if strings.EqualFold(strings.TrimSpace(t.Name), label) || strings.EqualFold(strings.TrimSpace(t.Label), label) {
				return t.ID.Int64(), true, nil
			}
		}
	} else if ctx.Err() != nil {
		return 0, false, ctx.Err()
	} else {
		utils.GetLogger().Debug("trip types unavailable, using fallback table", zap.Error(err))
	}

	tt, ok := domain.ParseTripType(label)
	if !ok {
		return 0, false, nil
	}
	id, ok := tt.FallbackID()
	return int64(id), ok, nil
}

// ResolveAll runs the four lookups concurrently. A transport failure fails
// the group; unmatched labels become one domain.ResolutionError.
func (r Resolver) ResolveAll(ctx context.Context, fromLabel, toLabel, vehicle, tripLabel string) (ResolvedIDs, error) {
	var (
		ids                         ResolvedIDs
		okFrom, okTo, okVeh, okTrip bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ids.FromCityID, okFrom, err = r.ResolveCity(gctx, fromLabel)
		return err
	})
	g.Go(func() (err error) {
		ids.ToCityID, okTo, err = r.ResolveCity(gctx, toLabel)
		return err
	})
	g.Go(func() (err error) {
		ids.VehicleTypeID, okVeh, err = r.ResolveVehicleType(gctx, vehicle)
		return err
	})
	g.Go(func() (err error) {
		ids.TripTypeID, okTrip, err = r.ResolveTripType(gctx, tripLabel)
		return err
	})
	if err := g.Wait(); err != nil {
		return ResolvedIDs{}, err
	}

	var missing []string
	for _, m := range []struct {
		ok    bool
		label string
	}{
		{okFrom, "from city " + quoteLabel(fromLabel)},
		{okTo, "to city " + quoteLabel(toLabel)},
		{okVeh, "vehicle " + quoteLabel(vehicle)},
		{okTrip, "trip type " + quoteLabel(tripLabel)},
	} {
		if !m.ok {
			missing = append(missing, m.label)
		}
	}
	if len(missing) > 0 {
		return ResolvedIDs{}, domain.ResolutionError{Labels: missing}
	}
	return ids, nil
}

func quoteLabel(s string) string {
	return `"` + strings.TrimSpace(s) + `"`
}
