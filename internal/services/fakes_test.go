package services

import (
	"context"
	"sync"

	"dotrip/internal/backend"
	"dotrip/internal/domain/models"
)

type fakeReference struct {
	cities    []backend.City
	vehicles  []models.VehicleOption
	tripTypes []backend.TripTypeRef
	err       error
	tripErr   error

	mu    sync.Mutex
	calls int
}

func (f *fakeReference) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeReference) ListCities(context.Context) ([]backend.City, error) {
	f.hit()
	return f.cities, f.err
}

func (f *fakeReference) ListVehicleTypes(context.Context) ([]models.VehicleOption, error) {
	f.hit()
	return f.vehicles, f.err
}

func (f *fakeReference) ListTripTypes(context.Context) ([]backend.TripTypeRef, error) {
	f.hit()
	if f.tripErr != nil {
		return nil, f.tripErr
	}
	return f.tripTypes, f.err
}

func (f *fakeReference) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func defaultReference() *fakeReference {
	return &fakeReference{
		cities: []backend.City{
			{ID: 1, Name: "Pune", State: "Maharashtra"},
			{ID: 2, Name: "Goa", State: ""},
			{ID: 3, Name: "Aurangabad", State: "Maharashtra"},
			{ID: 4, Name: "Aurangabad", State: "Bihar"},
		},
		vehicles: []models.VehicleOption{
			{ID: 7, Name: "Sedan", Seats: 4, BaseFare: 500, RatePerKm: 12},
			{ID: 8, Name: "SUV", Seats: 6, BaseFare: 800, RatePerKm: 16, ImageRef: "suv.png"},
		},
		tripTypes: []backend.TripTypeRef{
			{ID: 11, Name: "ONE_WAY", Label: "One Way"},
			{ID: 12, Name: "ROUND_TRIP", Label: "Round Trip"},
		},
	}
}

type fakeAuth struct {
	sendErr   error
	verifyErr error
	token     string

	sent     []string
	verified []string
}

func (f *fakeAuth) SendOtp(_ context.Context, phone string) error {
	f.sent = append(f.sent, phone)
	return f.sendErr
}

func (f *fakeAuth) VerifyOtp(_ context.Context, phone, code string) (string, error) {
	f.verified = append(f.verified, phone+":"+code)
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return f.token, nil
}

type fakeBookings struct {
	results []backend.CreateResult
	errs    []error
	record  *models.BookingRecord
	getErr  error

	payloads []models.BookingPayload
	tokens   []string
	gotIDs   []string
}

func (f *fakeBookings) CreateBooking(_ context.Context, tokens backend.TokenSource, p models.BookingPayload) (backend.CreateResult, error) {
	i := len(f.payloads)
	f.payloads = append(f.payloads, p)
	f.tokens = append(f.tokens, tokens.Token())
	var res backend.CreateResult
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func (f *fakeBookings) GetBooking(_ context.Context, _ backend.TokenSource, id string) (*models.BookingRecord, error) {
	f.gotIDs = append(f.gotIDs, id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

type fakeUsers struct {
	user    *models.UserRecord
	profile *models.Profile
	err     error

	userIDs []string
	meCalls int
}

func (f *fakeUsers) GetUser(_ context.Context, _ backend.TokenSource, id string) (*models.UserRecord, error) {
	f.userIDs = append(f.userIDs, id)
	return f.user, f.err
}

func (f *fakeUsers) Me(context.Context, backend.TokenSource) (*models.Profile, error) {
	f.meCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

// memTokens is an in-memory Tokens.
type memTokens struct {
	token   string
	lastID  string
	cleared int
}

func (m *memTokens) Token() string { return m.token }

func (m *memTokens) SetToken(t string) { m.token = t }

func (m *memTokens) ClearToken() {
	m.token = ""
	m.cleared++
}

func (m *memTokens) SetLastBookingID(id string) { m.lastID = id }

func (m *memTokens) LastBookingID() string { return m.lastID }
