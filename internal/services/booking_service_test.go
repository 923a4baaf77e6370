package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dotrip/internal/backend"
	"dotrip/internal/domain"
	"dotrip/internal/domain/models"
)

type bookingFixture struct {
	svc      *BookingService
	ref      *fakeReference
	auth     *fakeAuth
	bookings *fakeBookings
	users    *fakeUsers
	tokens   *memTokens
	st       *models.WizardState
	now      time.Time
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		ref:      defaultReference(),
		auth:     &fakeAuth{token: "tok-verified"},
		bookings: &fakeBookings{results: []backend.CreateResult{{ID: "482", Source: "body"}}},
		users:    &fakeUsers{profile: &models.Profile{UserRecord: models.UserRecord{Name: "Asha Rao", Email: "asha@example.com"}}},
		tokens:   &memTokens{},
		st:       models.NewWizardState("sid-1"),
		now:      time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC),
	}
	f.svc = &BookingService{
		Resolver: Resolver{API: f.ref},
		Bookings: f.bookings,
		Gate: OtpGate{
			Auth:     f.auth,
			Users:    f.users,
			Cooldown: 60 * time.Second,
			Now:      func() time.Time { return f.now },
		},
	}
	return f
}

func validRequest() models.BookingRequest {
	return models.BookingRequest{
		Contact: models.ContactDetails{
			Name:          "Asha Rao",
			Email:         "asha@example.com",
			Phone:         "98765 43210",
			PickupAddress: "12 MG Road",
		},
		Trip: models.TripQuery{
			OriginLabel:       "Pune, Maharashtra",
			DestinationLabels: []string{"Goa"},
			TripType:          domain.TripOneWay,
			PickupDate:        "2025-05-05",
			PickupTime:        "07:00",
		},
		Vehicle: "Sedan",
		Fare:    "1100.00",
	}
}

func TestSubmitBooking_LocalValidationMakesNoCalls(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.BookingRequest)
		want   string
	}{
		{"missing name", func(r *models.BookingRequest) { r.Contact.Name = " " }, MsgRequiredFields},
		{"missing address", func(r *models.BookingRequest) { r.Contact.PickupAddress = "" }, MsgRequiredFields},
		{"short phone", func(r *models.BookingRequest) { r.Contact.Phone = "12345" }, MsgInvalidPhone},
		{"letters in phone", func(r *models.BookingRequest) { r.Contact.Phone = "98765abc10" }, MsgInvalidPhone},
		{"bad email", func(r *models.BookingRequest) { r.Contact.Email = "asha@" }, MsgInvalidEmail},
	}
	for _, tc := range cases {
		f := newBookingFixture()
		f.tokens.token = "tok"
		req := validRequest()
		tc.mutate(&req)

		_, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, req)
		if !domain.IsValidation(err) || err.Error() != tc.want {
			t.Fatalf("%s: got %v, want %q", tc.name, err, tc.want)
		}
		if f.ref.Calls() != 0 || len(f.auth.sent) != 0 || len(f.bookings.payloads) != 0 {
			t.Fatalf("%s: network touched", tc.name)
		}
	}
}

func TestSubmitBooking_NoTokenBuffersAndSendsOtp(t *testing.T) {
	f := newBookingFixture()

	res, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, validRequest())
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}
	if res.Outcome != OutcomeOtpRequired {
		t.Fatalf("outcome = %q", res.Outcome)
	}
	if len(f.auth.sent) != 1 || f.auth.sent[0] != "9876543210" {
		t.Fatalf("otp sent to %v", f.auth.sent)
	}
	if f.st.Pending == nil || f.st.Pending.Contact.Phone != "9876543210" {
		t.Fatalf("request not buffered: %+v", f.st.Pending)
	}
	if f.st.Otp.State != models.OtpAwaitingCode || !f.st.Otp.ModalOpen {
		t.Fatalf("otp state = %+v", f.st.Otp)
	}
	if len(f.bookings.payloads) != 0 {
		t.Fatalf("booking created without a token")
	}
}

func TestSubmitBooking_ResubmitDuringCooldownReopens(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	if _, err := f.svc.SubmitBooking(ctx, f.st, f.tokens, validRequest()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	f.svc.Gate.Dismiss(f.st)
	f.now = f.now.Add(10 * time.Second)

	res, err := f.svc.SubmitBooking(ctx, f.st, f.tokens, validRequest())
	if err != nil || res.Outcome != OutcomeOtpRequired {
		t.Fatalf("second submit: %+v, %v", res, err)
	}
	if len(f.auth.sent) != 1 {
		t.Fatalf("otp resent during cooldown: %v", f.auth.sent)
	}
	if !f.st.Otp.ModalOpen {
		t.Fatalf("modal should be reopened")
	}
}

func TestVerifyOtp_WrongCodeKeepsAwaiting(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	_, _ = f.svc.SubmitBooking(ctx, f.st, f.tokens, validRequest())

	f.auth.verifyErr = domain.BackendError{Status: 400, Msg: "Invalid OTP"}
	_, err := f.svc.VerifyOtp(ctx, f.st, f.tokens, "0000")
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if f.st.Otp.State != models.OtpAwaitingCode || f.st.Otp.Verified {
		t.Fatalf("otp state = %+v", f.st.Otp)
	}
	if f.st.Otp.LastError != "Invalid OTP" || f.st.Otp.Code != "0000" {
		t.Fatalf("error/code not kept: %+v", f.st.Otp)
	}
	if f.tokens.token != "" {
		t.Fatalf("token stored after rejection")
	}
	if len(f.bookings.payloads) != 0 {
		t.Fatalf("booking created after rejection")
	}
}

func TestVerifyOtp_EmptyCode(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	_, _ = f.svc.SubmitBooking(ctx, f.st, f.tokens, validRequest())

	_, err := f.svc.VerifyOtp(ctx, f.st, f.tokens, "  ")
	if !domain.IsValidation(err) || len(f.auth.verified) != 0 {
		t.Fatalf("empty code should fail locally, got %v", err)
	}
}

func TestVerifyOtp_SuccessSubmitsBufferedRequest(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	_, _ = f.svc.SubmitBooking(ctx, f.st, f.tokens, validRequest())

	res, err := f.svc.VerifyOtp(ctx, f.st, f.tokens, "4321")
	if err != nil {
		t.Fatalf("VerifyOtp: %v", err)
	}
	if res.Outcome != OutcomeCreated || res.BookingID != "482" || res.Redirect != "/booking-confirmation?id=482" {
		t.Fatalf("result = %+v", res)
	}
	if f.tokens.token != "tok-verified" || f.tokens.lastID != "482" {
		t.Fatalf("token/last id = %q/%q", f.tokens.token, f.tokens.lastID)
	}
	if f.st.Otp.State != models.OtpVerified || f.st.Pending != nil {
		t.Fatalf("state after create: otp=%s pending=%v", f.st.Otp.State, f.st.Pending)
	}
	if len(f.bookings.payloads) != 1 {
		t.Fatalf("payloads = %d", len(f.bookings.payloads))
	}
	p := f.bookings.payloads[0]
	want := models.BookingPayload{
		Phone:           "9876543210",
		PickupLocation:  "12 MG Road",
		DropoffLocation: "Goa",
		PickupDate:      "2025-05-05",
		PickupTime:      "07:00",
		FromCityID:      1,
		ToCityID:        2,
		TripTypeID:      11,
		VehicleTypeID:   7,
		Fare:            1100,
		NumPersons:      4,
		NumVehicles:     1,
	}
	if p != want {
		t.Fatalf("payload = %+v\nwant     %+v", p, want)
	}
	if f.bookings.tokens[0] != "tok-verified" {
		t.Fatalf("create used token %q", f.bookings.tokens[0])
	}
	if f.users.meCalls != 1 || f.st.Contact.Name != "Asha Rao" {
		t.Fatalf("profile prefill did not run")
	}
}

func TestSubmitBooking_UnauthorizedRestartsOtp(t *testing.T) {
	f := newBookingFixture()
	f.tokens.token = "stale"
	f.bookings.errs = []error{domain.BackendError{Status: 401, Msg: "Unauthorized (401)"}}

	res, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, validRequest())
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}
	if res.Outcome != OutcomeOtpRequired {
		t.Fatalf("outcome = %q", res.Outcome)
	}
	if f.tokens.token != "" || f.tokens.cleared != 1 {
		t.Fatalf("stale token not cleared")
	}
	if f.st.Otp.LastError != MsgSessionExpired || f.st.Otp.State != models.OtpAwaitingCode {
		t.Fatalf("otp = %+v", f.st.Otp)
	}
	if f.st.Pending == nil {
		t.Fatalf("request should stay buffered for after verification")
	}
}

func TestSubmitBooking_ResolutionFailureBeforeCreate(t *testing.T) {
	f := newBookingFixture()
	f.tokens.token = "tok"
	req := validRequest()
	req.Vehicle = "Spaceship"

	_, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, req)
	if !domain.IsResolution(err) || ErrorMessage(err) != domain.ResolutionFailedMessage {
		t.Fatalf("expected resolution failure, got %v", err)
	}
	if len(f.bookings.payloads) != 0 {
		t.Fatalf("booking created despite unresolved vehicle")
	}
}

func TestSubmitBooking_RejectionSurfacesMessage(t *testing.T) {
	f := newBookingFixture()
	f.tokens.token = "tok"
	f.bookings.errs = []error{domain.BackendError{Status: 400, Msg: "pickupDate must be a date • fare must be positive"}}

	_, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, validRequest())
	if ErrorMessage(err) != "pickupDate must be a date • fare must be positive" {
		t.Fatalf("message = %q", ErrorMessage(err))
	}
	if len(f.bookings.payloads) != 1 {
		t.Fatalf("create must be attempted exactly once, got %d", len(f.bookings.payloads))
	}
}

func TestSubmitBooking_TransportErrorMessage(t *testing.T) {
	f := newBookingFixture()
	f.tokens.token = "tok"
	f.bookings.errs = []error{domain.TransportError{Op: "bookings-create", Err: errors.New("connection reset")}}

	_, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, validRequest())
	if ErrorMessage(err) != MsgBookingNetwork {
		t.Fatalf("message = %q", ErrorMessage(err))
	}
}

func TestBuildPayload_RoundTripRules(t *testing.T) {
	svc := &BookingService{}
	req := validRequest()
	req.Contact.Phone = "9876543210"
	req.Trip.TripType = domain.TripRoundTrip

	_, err := svc.BuildPayload(req, ResolvedIDs{})
	if err == nil || err.Error() != MsgReturnDate {
		t.Fatalf("missing return date: got %v", err)
	}

	req.Trip.ReturnDate = "2025-05-07"
	req.Trip.ReturnTime = "7pm"
	if _, err := svc.BuildPayload(req, ResolvedIDs{}); err == nil || err.Error() != MsgReturnTime {
		t.Fatalf("bad return time: got %v", err)
	}

	req.Trip.ReturnTime = ""
	p, err := svc.BuildPayload(req, ResolvedIDs{})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if p.ReturnDate != "2025-05-07" || p.ReturnTime != "" {
		t.Fatalf("return fields = %q/%q", p.ReturnDate, p.ReturnTime)
	}
}

func TestBuildPayload_DateTimeAndFare(t *testing.T) {
	svc := &BookingService{NumPersons: 2, NumVehicles: 3}
	req := validRequest()

	req.Trip.PickupDate = "05/05/2025"
	if _, err := svc.BuildPayload(req, ResolvedIDs{}); err == nil || err.Error() != MsgPickupDate {
		t.Fatalf("bad date: got %v", err)
	}
	req.Trip.PickupDate = "2025-05-05"
	req.Trip.PickupTime = "7:00"
	if _, err := svc.BuildPayload(req, ResolvedIDs{}); err == nil || err.Error() != MsgPickupTime {
		t.Fatalf("bad time: got %v", err)
	}

	req.Trip.PickupTime = "07:00"
	req.Fare = "n/a"
	p, err := svc.BuildPayload(req, ResolvedIDs{})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if p.Fare != 0 || p.NumPersons != 2 || p.NumVehicles != 3 || p.ReturnDate != "" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestCancelOtp_DropsPending(t *testing.T) {
	f := newBookingFixture()
	_, _ = f.svc.SubmitBooking(context.Background(), f.st, f.tokens, validRequest())
	f.svc.CancelOtp(f.st)
	if f.st.Pending != nil || f.st.Otp.State != models.OtpIdle {
		t.Fatalf("cancel left state behind: %+v", f.st.Otp)
	}
}

func TestResendOtp_OnlyAfterCooldown(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	_, _ = f.svc.SubmitBooking(ctx, f.st, f.tokens, validRequest())

	if err := f.svc.ResendOtp(ctx, f.st); !domain.IsValidation(err) {
		t.Fatalf("resend during cooldown: got %v", err)
	}
	f.now = f.now.Add(61 * time.Second)
	if err := f.svc.ResendOtp(ctx, f.st); err != nil {
		t.Fatalf("resend after cooldown: %v", err)
	}
	if len(f.auth.sent) != 2 {
		t.Fatalf("sent = %v", f.auth.sent)
	}
}

func TestSubmitBooking_SendFailureReturnsToIdle(t *testing.T) {
	f := newBookingFixture()
	f.auth.sendErr = domain.BackendError{Status: 500, Msg: "SMS gateway down"}

	_, err := f.svc.SubmitBooking(context.Background(), f.st, f.tokens, validRequest())
	if err == nil {
		t.Fatalf("expected send failure")
	}
	if f.st.Otp.State != models.OtpIdle || f.st.Otp.LastError != "SMS gateway down" {
		t.Fatalf("otp = %+v", f.st.Otp)
	}
}

func TestValidateContact_ConcurrentCallers(t *testing.T) {
	svc := &BookingService{}
	good := validRequest().Contact
	bad := good
	bad.Email = "not-an-email"

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := svc.ValidateContact(good); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.ValidateContact(bad); err == nil || err.Error() != MsgInvalidEmail {
				errs <- fmt.Errorf("bad email: got %v", err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ValidateContact: %v", err)
	}
	if svc.Validate != nil {
		t.Fatalf("shared validator leaked into the service")
	}
}
