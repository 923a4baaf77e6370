package models

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"dotrip/internal/domain"
)

const (
	MinDestinations = 1
	MaxDestinations = 6
)

// Query parameter names shared by the search, car and booking pages.
const (
	ParamFromCity      = "from_city_name"
	ParamToCity        = "to_city_name"
	ParamTripSubType   = "trip_sub_type"
	ParamTripTypeLabel = "trip_type_label"
	ParamPickupDate    = "pickup_date"
	ParamPickupTime    = "pickup_time"
	ParamReturnDate    = "return_date"
	ParamReturnTime    = "return_time"
	ParamToCities      = "to_cities"
	ParamDistanceKm    = "distance_km"
	ParamCar           = "car"
	ParamFare          = "fare"
)

// TripQuery is what the search form captures and every later page carries.
type TripQuery struct {
	OriginLabel       string
	DestinationLabels []string
	TripType          domain.TripType
	PickupDate        string
	PickupTime        string
	ReturnDate        string
	ReturnTime        string
	// DistanceKm is optional; zero means unknown.
	DistanceKm float64
}

// Destination is the first destination, the one bookings are made against.
func (q TripQuery) Destination() string {
	if len(q.DestinationLabels) == 0 {
		return ""
	}
	return strings.TrimSpace(q.DestinationLabels[0])
}

func (q TripQuery) IsRoundTrip() bool {
	return q.TripType == domain.TripRoundTrip
}

// Values encodes the trip into the inter-page query contract.
func (q TripQuery) Values() url.Values {
	v := url.Values{}
	v.Set(ParamFromCity, strings.TrimSpace(q.OriginLabel))
	v.Set(ParamToCity, q.Destination())
	tt := q.TripType
	if !tt.Valid() {
		tt = domain.TripOneWay
	}
	v.Set(ParamTripSubType, tt.SubType())
	v.Set(ParamTripTypeLabel, tt.Label())
	v.Set(ParamPickupDate, q.PickupDate)
	v.Set(ParamPickupTime, q.PickupTime)
	if q.IsRoundTrip() {
		if q.ReturnDate != "" {
			v.Set(ParamReturnDate, q.ReturnDate)
		}
		if q.ReturnTime != "" {
			v.Set(ParamReturnTime, q.ReturnTime)
		}
	}

	dests := q.nonEmptyDestinations()
	if len(dests) > 1 {
		raw, _ := json.Marshal(dests)
		v.Set(ParamToCities, string(raw))
	}
	if q.DistanceKm > 0 {
		v.Set(ParamDistanceKm, strconv.FormatFloat(q.DistanceKm, 'f', -1, 64))
	}
	return v
}

func (q TripQuery) nonEmptyDestinations() []string {
	out := []string{}
	for _, d := range q.DestinationLabels {
		if s := strings.TrimSpace(d); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TripQueryFromValues is the inverse of Values. It is lenient: missing keys
// yield empty fields and a malformed to_cities falls back to to_city_name.
func TripQueryFromValues(v url.Values) TripQuery {
	q := TripQuery{
		OriginLabel: strings.TrimSpace(v.Get(ParamFromCity)),
		PickupDate:  strings.TrimSpace(v.Get(ParamPickupDate)),
		PickupTime:  strings.TrimSpace(v.Get(ParamPickupTime)),
		ReturnDate:  strings.TrimSpace(v.Get(ParamReturnDate)),
		ReturnTime:  strings.TrimSpace(v.Get(ParamReturnTime)),
	}

	tt, ok := domain.ParseTripType(v.Get(ParamTripTypeLabel))
	if !ok {
		tt, _ = domain.ParseTripType(v.Get(ParamTripSubType))
	}
	q.TripType = tt

	var dests []string
	if raw := strings.TrimSpace(v.Get(ParamToCities)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &dests); err != nil {
			dests = nil
		}
	}
	if len(dests) == 0 {
		dests = []string{strings.TrimSpace(v.Get(ParamToCity))}
	}
	if len(dests) > MaxDestinations {
		dests = dests[:MaxDestinations]
	}
	q.DestinationLabels = dests

	if d, err := strconv.ParseFloat(strings.TrimSpace(v.Get(ParamDistanceKm)), 64); err == nil {
		q.DistanceKm = d
	}
	return q
}
