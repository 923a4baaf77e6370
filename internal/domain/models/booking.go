package models

import (
	"strings"
	"time"

	"dotrip/internal/utils"
)

// BookingPayload is the body of POST /bookings. Build it once per confirmed
// attempt and pass it by value.
type BookingPayload struct {
	Phone           string  `json:"phone"`
	PickupLocation  string  `json:"pickupLocation"`
	DropoffLocation string  `json:"dropoffLocation"`
	PickupDate      string  `json:"pickupDate"`
	PickupTime      string  `json:"pickupTime"`
	ReturnDate      string  `json:"returnDate,omitempty"`
	ReturnTime      string  `json:"returnTime,omitempty"`
	FromCityID      int64   `json:"fromCityId"`
	ToCityID        int64   `json:"toCityId"`
	TripTypeID      int64   `json:"tripTypeId"`
	VehicleTypeID   int64   `json:"vehicleTypeId"`
	Fare            float64 `json:"fare"`
	NumPersons      int     `json:"numPersons"`
	NumVehicles     int     `json:"numVehicles"`
}

// BookingRequest is what the booking page submits. It is buffered in the
// wizard state while OTP verification is pending.
type BookingRequest struct {
	Contact ContactDetails `json:"contact"`
	Trip    TripQuery      `json:"trip"`
	Vehicle string         `json:"vehicle"`
	Fare    string         `json:"fare"`
}

// AddressRef is the nested addressBook relation on a booking.
type AddressRef struct {
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
}

type CityRef struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

type NamedRef struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// BookingRecord is GET /bookings/:id. Older bookings carry flat
// pickupLocation/dropoffLocation strings and a combined pickup timestamp,
// newer ones nested addresses and split date/time columns.
type BookingRecord struct {
	ID     Number `json:"id"`
	UserID Number `json:"userId"`
	Fare   Number `json:"fare"`
	Status string `json:"status,omitempty"`

	PickupDate     string `json:"pickupDate,omitempty"`
	PickupTime     string `json:"pickupTime,omitempty"`
	PickupDateTime string `json:"pickupDateTime,omitempty"`
	ReturnDate     string `json:"returnDate,omitempty"`
	ReturnTime     string `json:"returnTime,omitempty"`

	PickupAddress   *AddressRef `json:"pickupAddress,omitempty"`
	DropAddress     *AddressRef `json:"dropAddress,omitempty"`
	PickupLocation  string      `json:"pickupLocation,omitempty"`
	DropoffLocation string      `json:"dropoffLocation,omitempty"`

	FromCity    *CityRef  `json:"fromCity,omitempty"`
	ToCity      *CityRef  `json:"toCity,omitempty"`
	VehicleType *NamedRef `json:"vehicleType,omitempty"`
	TripType    *NamedRef `json:"tripType,omitempty"`

	NumPersons  Number `json:"numPersons,omitempty"`
	NumVehicles Number `json:"numVehicles,omitempty"`
}

const missingValue = "—"

func (b BookingRecord) PickupAddressText() string {
	if b.PickupAddress != nil && strings.TrimSpace(b.PickupAddress.Address) != "" {
		return strings.TrimSpace(b.PickupAddress.Address)
	}
	if s := strings.TrimSpace(b.PickupLocation); s != "" {
		return s
	}
	return missingValue
}

func (b BookingRecord) DropAddressText() string {
	if b.DropAddress != nil && strings.TrimSpace(b.DropAddress.Address) != "" {
		return strings.TrimSpace(b.DropAddress.Address)
	}
	if s := strings.TrimSpace(b.DropoffLocation); s != "" {
		return s
	}
	return missingValue
}

// PickupLabel is "YYYY-MM-DD • HH:mm". Split columns are recombined on the
// UTC clock; a combined timestamp is shown in loc.
func (b BookingRecord) PickupLabel(loc *time.Location) string {
	if label := splitLabel(b.PickupDate, b.PickupTime); label != "" {
		return label
	}
	combined := utils.FirstNonEmpty(b.PickupDateTime, b.PickupTime)
	if t, ok := utils.ParseTimestamp(combined); ok && t.Year() > 1970 {
		if loc == nil {
			loc = time.UTC
		}
		local := t.In(loc)
		return local.Format("2006-01-02") + " • " + local.Format("15:04")
	}
	return missingValue
}

// ReturnLabel is empty when the booking has no return leg.
func (b BookingRecord) ReturnLabel() string {
	return splitLabel(b.ReturnDate, b.ReturnTime)
}

func (b BookingRecord) RouteText() string {
	from, to := "", ""
	if b.FromCity != nil {
		from = cityText(*b.FromCity)
	}
	if b.ToCity != nil {
		to = cityText(*b.ToCity)
	}
	if from == "" && to == "" {
		return ""
	}
	return utils.FirstNonEmpty(from, missingValue) + " → " + utils.FirstNonEmpty(to, missingValue)
}

func (b BookingRecord) VehicleText() string {
	if b.VehicleType == nil {
		return ""
	}
	return strings.TrimSpace(b.VehicleType.Name)
}

func (b BookingRecord) TripTypeText() string {
	if b.TripType == nil {
		return ""
	}
	return utils.FirstNonEmpty(b.TripType.Label, b.TripType.Name)
}

func (b BookingRecord) FareText() string {
	return utils.FormatINR(b.Fare.Float())
}

func cityText(c CityRef) string {
	name := strings.TrimSpace(c.Name)
	if st := strings.TrimSpace(c.State); st != "" && name != "" {
		return name + ", " + st
	}
	return name
}

// splitLabel recombines a date-only column (ISO midnight) and a time-only
// column (1970-01-01T..Z). Both are read on the UTC clock so the viewer's
// offset never shifts them.
func splitLabel(dateRaw, timeRaw string) string {
	dateRaw = strings.TrimSpace(dateRaw)
	if dateRaw == "" {
		return ""
	}
	d, ok := utils.ParseTimestamp(dateRaw)
	if !ok {
		return ""
	}
	date := utils.FormatDate(d)
	if t, ok := utils.ParseTimestamp(timeRaw); ok {
		return date + " • " + utils.FormatClock(t)
	}
	return date
}
