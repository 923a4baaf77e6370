package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dotrip/internal/domain"
	"dotrip/internal/domain/models"
	"dotrip/internal/utils"
)

// CreateResult is a 2xx answer to POST /bookings. ID is empty when neither
// the body nor the headers carried one.
type CreateResult struct {
	ID     string
	Source string
}

// CreateBooking submits payload once. Rejections are turned into readable
// messages; nothing is retried.
func (c *Client) CreateBooking(ctx context.Context, tokens TokenSource, payload models.BookingPayload) (CreateResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/bookings", "bookings-create", payload, tokens)
	if err != nil {
		return CreateResult{}, err
	}
	if !resp.OK() {
		return CreateResult{}, domain.BackendError{
			Status: resp.Status,
			Msg:    RejectionMessage(resp.Status, resp.Body),
			Body:   resp.Text(),
		}
	}
	id, source := ExtractBookingID(resp)
	return CreateResult{ID: id, Source: source}, nil
}

// RejectionMessage reads a validation array ("message": [...]) joined with
// " • ", else "error (statusCode)", else the raw status and body.
func RejectionMessage(status int, body []byte) string {
	var parsed struct {
		Message    json.RawMessage `json:"message"`
		Error      json.RawMessage `json:"error"`
		StatusCode json.RawMessage `json:"statusCode"`
	}
	text := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(fmt.Sprintf("Create booking failed (%d) %s", status, text))
	}

	var messages []string
	if len(parsed.Message) > 0 && json.Unmarshal(parsed.Message, &messages) == nil && len(messages) > 0 {
		return strings.Join(messages, " • ")
	}

	var errText string
	if len(parsed.Error) > 0 && json.Unmarshal(parsed.Error, &errText) == nil {
		code := strings.Trim(strings.TrimSpace(string(parsed.StatusCode)), `"`)
		if code != "" && code != "null" {
			return fmt.Sprintf("%s (%s)", errText, code)
		}
		return errText
	}
	return fmt.Sprintf("Create booking failed (%d)", status)
}

// ExtractBookingID looks in the JSON body, then the Location header's last
// path segment, then X-Booking-Id.
func ExtractBookingID(resp *Response) (id, source string) {
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		var body struct {
			ID models.Number `json:"id"`
		}
		if json.Unmarshal(resp.Body, &body) == nil && body.ID > 0 {
			return strconv.FormatInt(body.ID.Int64(), 10), "body"
		}
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		if n, ok := positiveInt(utils.LastPathSegment(loc)); ok {
			return n, "location"
		}
	}
	if hdr := resp.Header.Get("X-Booking-Id"); hdr != "" {
		if n, ok := positiveInt(hdr); ok {
			return n, "header"
		}
	}
	return "", ""
}

func positiveInt(s string) (string, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

// GetBooking fetches one booking. An empty or unreadable 2xx body is an
// EmptyResponseError, distinct from a transport failure.
func (c *Client) GetBooking(ctx context.Context, tokens TokenSource, id string) (*models.BookingRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), "bookings-get", nil, tokens)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, domain.BackendError{
			Status: resp.Status,
			Msg:    strings.TrimSpace(fmt.Sprintf("Failed to fetch booking (%d) %s", resp.Status, resp.Text())),
			Body:   resp.Text(),
		}
	}

	var rec models.BookingRecord
	if len(bytes.TrimSpace(resp.Body)) == 0 || json.Unmarshal(resp.Body, &rec) != nil {
		return nil, domain.EmptyResponseError{Msg: "No booking details returned by server"}
	}
	return &rec, nil
}
