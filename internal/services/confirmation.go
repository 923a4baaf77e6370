package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"dotrip/internal/domain"
	"dotrip/internal/domain/models"
	"dotrip/internal/utils"

	"go.uber.org/zap"
)

const MsgMissingBookingID = "Missing booking id"

// ConfirmationView is what the confirmation page and the receipt render.
type ConfirmationView struct {
	BookingID   string
	Booking     models.BookingRecord
	User        *models.UserRecord
	PickupAddr  string
	DropAddr    string
	PickupLabel string
	ReturnLabel string
	FareText    string
	Route       string
	Vehicle     string
	TripType    string
}

type ConfirmationService struct {
	Bookings BookingAPI
	Users    UserAPI
	Location *time.Location
}

// ResolveBookingID picks the first usable id: explicit input, then the query
// (id, then bookingId), then the session fallback.
func ResolveBookingID(explicit, queryID, queryBookingID, fallback string) string {
	for _, c := range []string{explicit, queryID, queryBookingID, fallback} {
		c = strings.TrimSpace(c)
		if n, err := strconv.ParseInt(c, 10, 64); err == nil && n > 0 {
			return strconv.FormatInt(n, 10)
		}
	}
	return ""
}

// Load fetches the booking, then best-effort its owner.
func (s ConfirmationService) Load(ctx context.Context, tokens Tokens, id string) (*ConfirmationView, error) {
	if id == "" {
		return nil, domain.ValidationError{Field: "id", Msg: MsgMissingBookingID}
	}
	b, err := s.Bookings.GetBooking(ctx, tokens, id)
	if err != nil {
		return nil, err
	}

	view := &ConfirmationView{
		BookingID:   id,
		Booking:     *b,
		PickupAddr:  b.PickupAddressText(),
		DropAddr:    b.DropAddressText(),
		PickupLabel: b.PickupLabel(s.Location),
		ReturnLabel: b.ReturnLabel(),
		FareText:    b.FareText(),
		Route:       b.RouteText(),
		Vehicle:     b.VehicleText(),
		TripType:    b.TripTypeText(),
	}
	if b.ID > 0 {
		view.BookingID = strconv.FormatInt(b.ID.Int64(), 10)
	}
	view.User = s.loadUser(ctx, tokens, b)
	return view, nil
}

func (s ConfirmationService) loadUser(ctx context.Context, tokens Tokens, b *models.BookingRecord) *models.UserRecord {
	if s.Users == nil {
		return nil
	}
	if b.UserID > 0 {
		u, err := s.Users.GetUser(ctx, tokens, strconv.FormatInt(b.UserID.Int64(), 10))
		if err != nil {
			utils.GetLogger().Debug("booking owner lookup skipped", zap.Error(err))
			return nil
		}
		return u
	}
	me, err := s.Users.Me(ctx, tokens)
	if err != nil {
		utils.GetLogger().Debug("current user lookup skipped", zap.Error(err))
		return nil
	}
	return &me.UserRecord
}
