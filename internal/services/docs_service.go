package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"dotrip/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the booking receipt PDF from the confirmation view.
type DocsService struct {
	RequestID string
	Loader    func(ctx context.Context, id string) (*ConfirmationView, error)
	Now       func() time.Time
}

func (s DocsService) GenerateReceipt(ctx context.Context, id string) ([]byte, string, error) {
	if s.Loader == nil {
		return nil, "", fmt.Errorf("docs: no booking loader configured")
	}
	view, err := s.Loader(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", "booking_id="+view.BookingID)
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return buildReceiptPDF(view, now)
}

func buildReceiptPDF(v *ConfirmationView, issued time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING CONFIRMED")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Reference   : #"+safe(v.BookingID, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued      : "+issued.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	if v.User != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Passenger:")
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 7, "Name        : "+pdfText(safe(v.User.Name, "-")))
		pdf.Ln(7)
		pdf.Cell(0, 7, "Email       : "+pdfText(safe(v.User.Email, "-")))
		pdf.Ln(7)
		if strings.TrimSpace(v.User.Phone) != "" {
			pdf.Cell(0, 7, "Mobile      : "+pdfText(v.User.Phone))
			pdf.Ln(7)
		}
		pdf.Ln(3)
	}

	lines := []string{
		"Pickup Address : " + safe(v.PickupAddr, "-"),
		"Drop Address   : " + safe(v.DropAddr, "-"),
		"Date & Time    : " + safe(v.PickupLabel, "-"),
	}
	if v.ReturnLabel != "" {
		lines = append(lines, "Return         : "+v.ReturnLabel)
	}
	if v.Route != "" {
		lines = append(lines, "Route          : "+v.Route)
	}
	if v.Vehicle != "" {
		lines = append(lines, "Vehicle        : "+v.Vehicle)
	}
	if v.TripType != "" {
		lines = append(lines, "Trip Type      : "+v.TripType)
	}
	pdf.SetFont("Helvetica", "", 12)
	for _, s := range lines {
		pdf.MultiCell(0, 7, pdfText(s), "", "", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Fare: "+pdfText(v.FareText))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Toll, parking and state taxes are extra and paid directly. Please keep this receipt for your trip.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RECEIPT_%s.pdf", safeFilenamePart(v.BookingID))
	return buf.Bytes(), filename, nil
}

// pdfText maps glyphs the core fonts cannot draw.
func pdfText(s string) string {
	return strings.NewReplacer("₹", "INR ", "•", "-", "→", "->", "—", "-").Replace(s)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "—" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
