package models

import "math"

// OriginalPriceMarkup is the strikethrough price shown next to the estimate.
const OriginalPriceMarkup = 1.12

// VehicleOption is one entry of GET /vehicle-types.
type VehicleOption struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Seats     int    `json:"seatingCapacity"`
	BaseFare  Number `json:"baseFare"`
	RatePerKm Number `json:"estimatedRatePerKm"`
	ImageRef  string `json:"image,omitempty"`
}

// EstimatedFare is the base fare plus rate × distance. The distance term only
// applies to a positive finite distance.
func (v VehicleOption) EstimatedFare(distanceKm float64) float64 {
	fare := v.BaseFare.Float()
	if distanceKm > 0 && !math.IsInf(distanceKm, 0) && !math.IsNaN(distanceKm) {
		fare += v.RatePerKm.Float() * distanceKm
	}
	return fare
}

func (v VehicleOption) OriginalPrice(distanceKm float64) float64 {
	return v.EstimatedFare(distanceKm) * OriginalPriceMarkup
}
