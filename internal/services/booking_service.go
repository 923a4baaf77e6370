package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"dotrip/internal/domain"
	"dotrip/internal/domain/models"
	"dotrip/internal/metrics"
	"dotrip/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	MsgRequiredFields = "Please fill all required fields."
	MsgInvalidPhone   = "Enter a valid phone number to receive OTP."
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgPickupDate     = "pickupDate must be YYYY-MM-DD"
	MsgPickupTime     = "pickupTime must be HH:mm"
	MsgReturnDate     = "Please select a valid return date for a round trip."
	MsgReturnTime     = "returnTime must be HH:mm"
	MsgSessionExpired = "Session expired. Please verify OTP again."
	MsgBookingNetwork = "Could not reach the booking service. Please try again."
	ConfirmationPath  = "/booking-confirmation"
)

const (
	defaultNumPersons  = 4
	defaultNumVehicles = 1
)

var phonePattern = regexp.MustCompile(`^\d{7,15}$`)

// contactValidate is shared; validator.Validate is safe for concurrent use.
var contactValidate = validator.New()

// Outcome tells the page what happened to a submission.
type Outcome string

const (
	// OutcomeOtpRequired: the request is buffered and the OTP modal is open.
	OutcomeOtpRequired Outcome = "otp_required"
	// OutcomeCreated: the booking exists; follow Redirect.
	OutcomeCreated Outcome = "created"
)

type SubmitResult struct {
	Outcome   Outcome
	BookingID string
	Redirect  string
}

// BookingService is the booking orchestrator: validate, gate on OTP,
// resolve ids, build the payload and create the booking.
type BookingService struct {
	Resolver    Resolver
	Bookings    BookingAPI
	Gate        OtpGate
	NumPersons  int
	NumVehicles int
	Metrics     *metrics.Metrics
	Validate    *validator.Validate
}

func (s *BookingService) validator() *validator.Validate {
	if s.Validate != nil {
		return s.Validate
	}
	return contactValidate
}

// NormalizeContact trims every field and strips whitespace from the phone.
func NormalizeContact(c models.ContactDetails) models.ContactDetails {
	return models.ContactDetails{
		Name:          utils.NormalizeSpace(c.Name),
		Email:         strings.TrimSpace(c.Email),
		Phone:         utils.StripSpaces(c.Phone),
		PickupAddress: strings.TrimSpace(c.PickupAddress),
	}
}

// ValidateContact checks required fields, then phone and email shape.
// It never touches the network.
func (s *BookingService) ValidateContact(c models.ContactDetails) error {
	c = NormalizeContact(c)
	if c.Name == "" || c.Email == "" || c.Phone == "" || c.PickupAddress == "" {
		return domain.ValidationError{Field: "contact", Msg: MsgRequiredFields}
	}
	if !phonePattern.MatchString(c.Phone) {
		return domain.ValidationError{Field: "phone", Msg: MsgInvalidPhone}
	}
	if err := s.validator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Email" {
					return domain.ValidationError{Field: "email", Msg: MsgInvalidEmail, Err: err}
				}
			}
			return domain.ValidationError{Field: "contact", Msg: MsgRequiredFields, Err: err}
		}
		return err
	}
	return nil
}

// SubmitBooking runs the whole flow for one press of "Confirm". Without a
// token the request is buffered on st and an OTP is sent; the booking is
// then created by VerifyOtp.
func (s *BookingService) SubmitBooking(ctx context.Context, st *models.WizardState, tokens Tokens, req models.BookingRequest) (SubmitResult, error) {
	req.Contact = NormalizeContact(req.Contact)
	st.Contact = req.Contact
	if err := s.ValidateContact(req.Contact); err != nil {
		s.Metrics.BookingFailed("validation")
		return SubmitResult{}, err
	}
	phone := utils.DigitsOnly(req.Contact.Phone)
	req.Contact.Phone = phone

	if st.Otp.ChangePhone(phone) {
		utils.GetLogger().Debug("phone changed, otp reset")
	}

	if tokens.Token() == "" {
		return s.requireOtp(ctx, st, req, "")
	}
	return s.create(ctx, st, tokens, req)
}

// VerifyOtp checks the code and, once VERIFIED, immediately submits the
// buffered request. A wrong code leaves everything as it was.
func (s *BookingService) VerifyOtp(ctx context.Context, st *models.WizardState, tokens Tokens, code string) (SubmitResult, error) {
	if err := s.Gate.Verify(ctx, st, tokens, code); err != nil {
		return SubmitResult{}, err
	}
	if st.Pending == nil {
		return SubmitResult{}, nil
	}
	req := *st.Pending
	return s.create(ctx, st, tokens, req)
}

func (s *BookingService) ResendOtp(ctx context.Context, st *models.WizardState) error {
	return s.Gate.Resend(ctx, st)
}

// CancelOtp drops the modal and the buffered request.
func (s *BookingService) CancelOtp(st *models.WizardState) {
	s.Gate.Cancel(st)
	st.Pending = nil
}

func (s *BookingService) requireOtp(ctx context.Context, st *models.WizardState, req models.BookingRequest, notice string) (SubmitResult, error) {
	pending := req
	st.Pending = &pending

	phone := req.Contact.Phone
	if st.Otp.State == models.OtpVerified {
		// Verified earlier but the token is gone.
		st.Otp.Expire(MsgSessionExpired)
	}
	if st.Otp.State == models.OtpAwaitingCode && st.Otp.Phone == phone && !st.Otp.CanResend(s.Gate.now()) {
		st.Otp.Reopen(s.Gate.now())
		return SubmitResult{Outcome: OutcomeOtpRequired}, nil
	}
	if st.Otp.State != models.OtpIdle {
		st.Otp.Cancel()
	}

	if err := s.Gate.Send(ctx, st, phone); err != nil {
		return SubmitResult{}, err
	}
	if notice != "" {
		st.Otp.LastError = notice
	}
	return SubmitResult{Outcome: OutcomeOtpRequired}, nil
}

// create resolves ids, builds the payload and posts it once.
func (s *BookingService) create(ctx context.Context, st *models.WizardState, tokens Tokens, req models.BookingRequest) (SubmitResult, error) {
	trip := req.Trip
	ids, err := s.Resolver.ResolveAll(ctx, trip.OriginLabel, trip.Destination(), req.Vehicle, trip.TripType.Label())
	if err != nil {
		if domain.IsResolution(err) {
			var re domain.ResolutionError
			errors.As(err, &re)
			utils.GetLogger().Info("booking labels unresolved", zap.String("detail", re.Detail()))
			s.Metrics.BookingFailed("resolution")
		}
		return SubmitResult{}, err
	}

	payload, err := s.BuildPayload(req, ids)
	if err != nil {
		s.Metrics.BookingFailed("validation")
		return SubmitResult{}, err
	}

	res, err := s.Bookings.CreateBooking(ctx, tokens, payload)
	if err != nil {
		if domain.IsUnauthorized(err) {
			tokens.ClearToken()
			s.Metrics.BookingFailed("unauthorized")
			return s.requireOtp(ctx, st, req, MsgSessionExpired)
		}
		if domain.IsBackend(err) {
			s.Metrics.BookingFailed("rejected")
		} else {
			s.Metrics.BookingFailed("transport")
		}
		return SubmitResult{}, err
	}

	s.Metrics.BookingCreated()
	st.Pending = nil
	redirect := ConfirmationPath
	if res.ID != "" {
		tokens.SetLastBookingID(res.ID)
		st.LastBookingID = res.ID
		redirect = ConfirmationPath + "?" + url.Values{"id": {res.ID}}.Encode()
	} else {
		utils.GetLogger().Warn("booking created but no id was returned")
	}
	return SubmitResult{Outcome: OutcomeCreated, BookingID: res.ID, Redirect: redirect}, nil
}

// BuildPayload checks the date and time fields and assembles the payload.
func (s *BookingService) BuildPayload(req models.BookingRequest, ids ResolvedIDs) (models.BookingPayload, error) {
	trip := req.Trip
	date := strings.TrimSpace(trip.PickupDate)
	clock := strings.TrimSpace(trip.PickupTime)
	if !utils.IsDate(date) {
		return models.BookingPayload{}, domain.ValidationError{Field: "pickupDate", Msg: MsgPickupDate}
	}
	if !utils.IsClock(clock) {
		return models.BookingPayload{}, domain.ValidationError{Field: "pickupTime", Msg: MsgPickupTime}
	}

	var returnDate, returnTime string
	if trip.IsRoundTrip() {
		returnDate = strings.TrimSpace(trip.ReturnDate)
		if !utils.IsDate(returnDate) {
			return models.BookingPayload{}, domain.ValidationError{Field: "returnDate", Msg: MsgReturnDate}
		}
		returnTime = strings.TrimSpace(trip.ReturnTime)
		if returnTime != "" && !utils.IsClock(returnTime) {
			return models.BookingPayload{}, domain.ValidationError{Field: "returnTime", Msg: MsgReturnTime}
		}
	}

	fare, err := utils.ParseFare(req.Fare)
	if err != nil {
		fare = 0
	}

	numPersons, numVehicles := s.NumPersons, s.NumVehicles
	if numPersons <= 0 {
		numPersons = defaultNumPersons
	}
	if numVehicles <= 0 {
		numVehicles = defaultNumVehicles
	}

	return models.BookingPayload{
		Phone:           utils.DigitsOnly(req.Contact.Phone),
		PickupLocation:  strings.TrimSpace(req.Contact.PickupAddress),
		DropoffLocation: trip.Destination(),
		PickupDate:      date,
		PickupTime:      clock,
		ReturnDate:      returnDate,
		ReturnTime:      returnTime,
		FromCityID:      ids.FromCityID,
		ToCityID:        ids.ToCityID,
		TripTypeID:      ids.TripTypeID,
		VehicleTypeID:   ids.VehicleTypeID,
		Fare:            fare,
		NumPersons:      numPersons,
		NumVehicles:     numVehicles,
	}, nil
}

// ErrorMessage is the inline text a page shows for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve domain.ValidationError
	var be domain.BackendError
	var ee domain.EmptyResponseError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case domain.IsResolution(err):
		return domain.ResolutionFailedMessage
	case errors.As(err, &be):
		return be.Error()
	case errors.As(err, &ee):
		return ee.Error()
	case domain.IsTransport(err), errors.Is(err, context.DeadlineExceeded):
		return MsgBookingNetwork
	default:
		return "Something went wrong. Please try again."
	}
}
