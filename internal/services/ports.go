package services

import (
	"context"

	"dotrip/internal/backend"
	"dotrip/internal/domain/models"
)

// ReferenceAPI lists the lookup collections labels are resolved against.
type ReferenceAPI interface {
	ListCities(ctx context.Context) ([]backend.City, error)
	ListVehicleTypes(ctx context.Context) ([]models.VehicleOption, error)
	ListTripTypes(ctx context.Context) ([]backend.TripTypeRef, error)
}

type AuthAPI interface {
	SendOtp(ctx context.Context, phone string) error
	VerifyOtp(ctx context.Context, phone, code string) (string, error)
}

type BookingAPI interface {
	CreateBooking(ctx context.Context, tokens backend.TokenSource, payload models.BookingPayload) (backend.CreateResult, error)
	GetBooking(ctx context.Context, tokens backend.TokenSource, id string) (*models.BookingRecord, error)
}

type UserAPI interface {
	GetUser(ctx context.Context, tokens backend.TokenSource, id string) (*models.UserRecord, error)
	Me(ctx context.Context, tokens backend.TokenSource) (*models.Profile, error)
}

type PlacesAPI interface {
	Autocomplete(ctx context.Context, input, sessionToken string) ([]backend.Suggestion, error)
}

// Tokens is the per-request token capability handed to services.
type Tokens interface {
	Token() string
	SetToken(token string)
	ClearToken()
	SetLastBookingID(id string)
	LastBookingID() string
}
