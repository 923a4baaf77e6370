package domain

import "strings"

// ID is used across domain entities.
type ID int64

// TripType is the kind of trip picked on the search form.
type TripType string

const (
	TripOneWay    TripType = "ONE_WAY"
	TripRoundTrip TripType = "ROUND_TRIP"
	TripLocal     TripType = "LOCAL"
	TripAirport   TripType = "AIRPORT"
)

// TripTypes in the order the search form offers them.
var TripTypes = []TripType{TripOneWay, TripRoundTrip, TripLocal, TripAirport}

// Label is the human readable form carried between pages ("ROUND TRIP").
func (t TripType) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// SubType is the compact query form: lower case, first space removed ("roundtrip").
func (t TripType) SubType() string {
	return strings.ToLower(strings.Replace(t.Label(), " ", "", 1))
}

// FallbackID is used when /trip-types is unreachable or lists no match.
func (t TripType) FallbackID() (ID, bool) {
	switch t {
	case TripOneWay:
		return 1, true
	case TripRoundTrip:
		return 2, true
	case TripLocal:
		return 3, true
	case TripAirport:
		return 4, true
	}
	return 0, false
}

func (t TripType) Valid() bool {
	_, ok := t.FallbackID()
	return ok
}

// ParseTripType accepts a label, enum name or sub type in any case.
// Unknown input yields ONE_WAY and false.
func ParseTripType(s string) (TripType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)
	for _, t := range TripTypes {
		if strings.ReplaceAll(string(t), "_", "") == norm {
			return t, true
		}
	}
	return TripOneWay, false
}
