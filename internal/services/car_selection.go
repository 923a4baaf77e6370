package services

import (
	"context"
	"fmt"

	"dotrip/internal/domain/models"
	"dotrip/internal/utils"
)

const BookingPath = "/booking"

// Details tabs shown under every car.
var (
	carInclusions = []string{"Base Fare", "Driver Allowance", "GST (5%)"}
	carExclusions = []string{
		"Pay ₹12/km after 80 km",
		"Pay ₹144/hr after 8 hours",
		"Night Allowance",
		"Toll / State tax",
		"Parking",
	}
	carTerms = []string{
		"Your Trip has a KM limit as well as an Hours limit.",
		"Exceeding limits will incur extra charges.",
		"Airport entry charge (if any) is excluded.",
		"Toll, parking, and taxes are extra and paid directly.",
		"Driving between 09:45 PM to 06:00 AM requires night allowance.",
	}
)

type CarTab struct {
	Name  string
	Items []string
}

// CarCard is one row of the car selection list.
type CarCard struct {
	Vehicle       models.VehicleOption
	Fare          float64
	FareText      string
	OriginalPrice string
	ImageURL      string
	SelectURL     string
	Tabs          []CarTab
}

type CarSelectionService struct {
	API ReferenceAPI
}

// List fetches vehicle types and prices them for trip.
func (s CarSelectionService) List(ctx context.Context, trip models.TripQuery) ([]CarCard, error) {
	vehicles, err := s.API.ListVehicleTypes(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]CarCard, 0, len(vehicles))
	for _, v := range vehicles {
		cards = append(cards, BuildCarCard(v, trip))
	}
	return cards, nil
}

// BuildCarCard prices v and builds the Select link that forwards every trip
// parameter plus car and fare to the booking page.
func BuildCarCard(v models.VehicleOption, trip models.TripQuery) CarCard {
	fare := v.EstimatedFare(trip.DistanceKm)
	fareText := utils.FormatMoney(fare)

	params := trip.Values()
	params.Set(models.ParamCar, v.Name)
	params.Set(models.ParamFare, fareText)

	card := CarCard{
		Vehicle:       v,
		Fare:          fare,
		FareText:      fareText,
		OriginalPrice: utils.FormatMoney(v.OriginalPrice(trip.DistanceKm)),
		SelectURL:     BookingPath + "?" + params.Encode(),
		Tabs: []CarTab{
			{Name: "INCLUSIONS", Items: carInclusions},
			{Name: "EXCLUSIONS", Items: carExclusions},
			{Name: "FACILITIES", Items: facilities(v)},
			{Name: "T&C", Items: carTerms},
		},
	}
	if v.ImageRef != "" {
		card.ImageURL = "/static/cars/" + v.ImageRef
	}
	return card
}

func facilities(v models.VehicleOption) []string {
	seats := "4 seater"
	if v.Seats > 0 {
		seats = fmt.Sprintf("%d seater", v.Seats)
	}
	return []string{seats, "1 bag", "AC"}
}
