package services

import (
	"context"
	"strings"
	"time"

	"dotrip/internal/domain"
	"dotrip/internal/domain/models"
	"dotrip/internal/utils"

	"go.uber.org/zap"
)

const (
	MsgPickupCity     = "Please select the pickup city"
	MsgDropCity       = "Please select the drop city"
	MsgReturnMissing  = "Please select the return date"
	MsgReturnBefore   = "Return date cannot be before pickup date"
	SelectCarsPath    = "/select_cars"
	defaultPickupTime = "07:00"
)

// TripSearchForm is the state of the home page search form.
type TripSearchForm struct {
	Origin       string
	Destinations []string
	TripType     domain.TripType
	PickupDate   string
	PickupTime   string
	ReturnDate   string
	ReturnTime   string
}

// NewTripSearchForm starts with one empty destination and tomorrow at 07:00.
func NewTripSearchForm(now time.Time) TripSearchForm {
	tomorrow := utils.FormatDate(now.AddDate(0, 0, 1))
	return TripSearchForm{
		Destinations: []string{""},
		TripType:     domain.TripOneWay,
		PickupDate:   tomorrow,
		PickupTime:   defaultPickupTime,
		ReturnDate:   tomorrow,
	}
}

func (f TripSearchForm) CanAdd() bool {
	return len(f.Destinations) < models.MaxDestinations
}

func (f TripSearchForm) CanRemove() bool {
	return len(f.Destinations) > models.MinDestinations
}

// AddDestination appends an empty row unless the form is full.
func (f *TripSearchForm) AddDestination() bool {
	if !f.CanAdd() {
		return false
	}
	f.Destinations = append(f.Destinations, "")
	return true
}

// RemoveDestination drops row i unless it is the last one left.
func (f *TripSearchForm) RemoveDestination(i int) bool {
	if !f.CanRemove() || i < 0 || i >= len(f.Destinations) {
		return false
	}
	f.Destinations = append(f.Destinations[:i:i], f.Destinations[i+1:]...)
	return true
}

// Clamp keeps the destination list within 1..6 rows.
func (f *TripSearchForm) Clamp() {
	if len(f.Destinations) > models.MaxDestinations {
		f.Destinations = f.Destinations[:models.MaxDestinations]
	}
	if len(f.Destinations) < models.MinDestinations {
		f.Destinations = append(f.Destinations, "")
	}
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, k := range []string{"pickup", "drop", "return"} {
		if msg, ok := e[k]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Submit validates the form and returns the trip to carry forward. It never
// touches the network.
func (f TripSearchForm) Submit() (models.TripQuery, error) {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Origin) == "" {
		errs["pickup"] = MsgPickupCity
	}
	if len(f.Destinations) == 0 || strings.TrimSpace(f.Destinations[0]) == "" {
		errs["drop"] = MsgDropCity
	}
	if f.TripType == domain.TripRoundTrip {
		ret := strings.TrimSpace(f.ReturnDate)
		if ret == "" {
			errs["return"] = MsgReturnMissing
		} else if pickup, err := utils.ParseDate(f.PickupDate); err == nil {
			if back, err := utils.ParseDate(ret); err == nil && back.Before(pickup) {
				errs["return"] = MsgReturnBefore
			}
		}
	}
	if len(errs) > 0 {
		return models.TripQuery{}, errs
	}

	tt := f.TripType
	if !tt.Valid() {
		tt = domain.TripOneWay
	}
	q := models.TripQuery{
		OriginLabel:       strings.TrimSpace(f.Origin),
		DestinationLabels: trimAll(f.Destinations),
		TripType:          tt,
		PickupDate:        strings.TrimSpace(f.PickupDate),
		PickupTime:        strings.TrimSpace(f.PickupTime),
	}
	if tt == domain.TripRoundTrip {
		q.ReturnDate = strings.TrimSpace(f.ReturnDate)
		q.ReturnTime = strings.TrimSpace(f.ReturnTime)
	}
	return q, nil
}

// SearchRedirect is the car selection URL for q.
func SearchRedirect(q models.TripQuery) string {
	return SelectCarsPath + "?" + q.Values().Encode()
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// CityDirectory lists "Name, State" labels for the search form suggestions.
type CityDirectory struct {
	API ReferenceAPI
}

// Labels returns nil when the list is unavailable; the form still works.
func (d CityDirectory) Labels(ctx context.Context) []string {
	cities, err := d.API.ListCities(ctx)
	if err != nil {
		utils.GetLogger().Debug("city list unavailable", zap.Error(err))
		return nil
	}
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if st := strings.TrimSpace(c.State); st != "" {
			name += ", " + st
		}
		out = append(out, name)
	}
	return out
}
