package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"dotrip/internal/backend"
	"dotrip/internal/domain"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"
	"dotrip/internal/session"
	"dotrip/web"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func newTestEngine() (*gin.Engine, *session.MemoryStore) {
	return newTestEngineWith(nil, nil)
}

// newTestEngineWith mounts every page and API route. A nil client leaves the
// backend-bound services empty; places may be nil too.
func newTestEngineWith(client *backend.Client, places services.PlacesAPI) (*gin.Engine, *session.MemoryStore) {
	store := session.NewMemoryStore(time.Hour)
	sessions := &middleware.Sessions{
		IDs:    session.NewIDs(testSecret, false),
		Sealer: session.NewSealer(testSecret),
		Store:  store,
	}
	h := &Handlers{
		Sessions: sessions,
		Booking:  &services.BookingService{},
		Places:   services.NewCancellableSearch(places, 0, nil),
		Now:      func() time.Time { return time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC) },
	}
	if client != nil {
		h.Cities = services.CityDirectory{API: client}
		h.Cars = services.CarSelectionService{API: client}
		h.Booking = &services.BookingService{
			Resolver: services.Resolver{API: client},
			Bookings: client,
			Gate:     services.OtpGate{Auth: client, Users: client},
		}
		h.Confirm = services.ConfirmationService{Bookings: client, Users: client, Location: time.UTC}
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.SetHTMLTemplate(web.MustTemplates())
	pages := r.Group("/", sessions.Middleware())
	pages.GET("/", h.Home)
	pages.POST("/search", h.Search)
	pages.GET("/select_cars", h.SelectCars)
	pages.GET("/booking", h.BookingPage)
	pages.POST("/booking", h.SubmitBooking)
	pages.POST("/booking/otp/verify", h.VerifyOtp)
	pages.POST("/booking/otp/resend", h.ResendOtp)
	pages.POST("/booking/otp/cancel", h.CancelOtp)
	pages.POST("/booking/otp/dismiss", h.DismissOtp)
	pages.GET("/booking-confirmation", h.Confirmation)
	pages.GET("/booking-confirmation/receipt", h.GetBookingReceiptPDF)
	api := r.Group("/api", sessions.Middleware())
	api.GET("/otp/status", h.OtpStatus)
	api.GET("/places/autocomplete", h.PlacesAutocomplete)
	api.POST("/places/select", h.PlacesSelect)
	return r, store
}

// cookieJar replays the cookies a browser would keep between requests.
type cookieJar map[string]*http.Cookie

func (j cookieJar) do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range j {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(j, ck.Name)
			continue
		}
		j[ck.Name] = ck
	}
	return w
}

func (j cookieJar) sessionID(t *testing.T) string {
	t.Helper()
	ck, ok := j[session.SessionCookie]
	if !ok {
		t.Fatalf("no session cookie")
	}
	sid, err := session.NewIDs(testSecret, false).Parse(ck.Value)
	if err != nil {
		t.Fatalf("parse sid: %v", err)
	}
	return sid
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, formRequest(path, form))
	return w
}

func TestHome_RendersDefaults(t *testing.T) {
	r, _ := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `value="2025-05-05"`) || !strings.Contains(body, `value="07:00"`) {
		t.Fatalf("defaults missing from form")
	}
	if strings.Contains(body, ">Remove<") {
		t.Fatalf("single destination must not be removable")
	}
}

func TestSearch_SubmitRedirectsToCars(t *testing.T) {
	r, _ := newTestEngine()
	w := postForm(r, "/search", url.Values{
		"from":        {"Pune, Maharashtra"},
		"to":          {"Goa", "Mumbai, Maharashtra"},
		"trip_type":   {"ONE_WAY"},
		"pickup_date": {"2025-05-05"},
		"pickup_time": {"07:00"},
		"distance_km": {"50"},
	})

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil || loc.Path != services.SelectCarsPath {
		t.Fatalf("location = %q", w.Header().Get("Location"))
	}
	q := loc.Query()
	if q.Get("from_city_name") != "Pune, Maharashtra" || q.Get("to_city_name") != "Goa" {
		t.Fatalf("query = %v", q)
	}
	if q.Get("trip_sub_type") != "oneway" || q.Get("distance_km") != "50" {
		t.Fatalf("query = %v", q)
	}
}

func TestSearch_MissingCitiesRerender(t *testing.T) {
	r, _ := newTestEngine()
	w := postForm(r, "/search", url.Values{"trip_type": {"ONE_WAY"}, "to": {""}})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, services.MsgPickupCity) || !strings.Contains(body, services.MsgDropCity) {
		t.Fatalf("field errors not rendered")
	}
}

func TestSearch_AddAndRemoveDestination(t *testing.T) {
	r, _ := newTestEngine()
	w := postForm(r, "/search", url.Values{"action": {"add"}, "to": {"Goa"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if n := strings.Count(w.Body.String(), `name="to"`); n != 2 {
		t.Fatalf("destination rows = %d", n)
	}

	w = postForm(r, "/search", url.Values{"remove": {"0"}, "to": {"Goa", "Mumbai"}})
	body := w.Body.String()
	if n := strings.Count(body, `name="to"`); n != 1 {
		t.Fatalf("destination rows = %d", n)
	}
	if !strings.Contains(body, `value="Mumbai"`) {
		t.Fatalf("wrong row removed")
	}
}

func TestConfirmation_MissingID(t *testing.T) {
	r, _ := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/booking-confirmation?id=abc", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), services.MsgMissingBookingID) {
		t.Fatalf("missing id message not shown")
	}
}

func TestReceipt_MissingID(t *testing.T) {
	r, _ := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/booking-confirmation/receipt", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "invalid_booking_id" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}
}

func TestOtpStatus_NewSessionIsIdle(t *testing.T) {
	r, _ := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/otp/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var view struct {
		State     string `json:"state"`
		ModalOpen bool   `json:"modalOpen"`
		CanResend bool   `json:"canResend"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "IDLE" || view.ModalOpen || view.CanResend {
		t.Fatalf("view = %+v", view)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), session.SessionCookie+"=") {
		t.Fatalf("session cookie not issued")
	}
}

func TestDismissOtp_RedirectsToBooking(t *testing.T) {
	r, _ := newTestEngine()
	w := postForm(r, "/booking/otp/dismiss", url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Location"), services.BookingPath) {
		t.Fatalf("location = %q", w.Header().Get("Location"))
	}
}

func TestPlacesAutocomplete_ShortInputKeepsToken(t *testing.T) {
	r, store := newTestEngine()
	jar := cookieJar{}
	w := jar.do(r, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=from&input=P", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"suggestions":[]}` {
		t.Fatalf("body = %s", w.Body.String())
	}
	st, err := store.Load(context.Background(), jar.sessionID(t))
	if err != nil || st.PlacesTokens["from"] == "" {
		t.Fatalf("places token not persisted: %+v %v", st, err)
	}
}

func TestPlacesField(t *testing.T) {
	tests := map[string]string{
		"from":  "from",
		" TO ":  "to-0",
		"to-0":  "to-0",
		"to-5":  "to-5",
		"to-6":  "default",
		"to-x":  "default",
		"drop":  "drop",
		"other": "default",
	}
	for in, want := range tests {
		if got := placesField(in); got != want {
			t.Fatalf("placesField(%q) = %q, want %q", in, got, want)
		}
	}
}

// gatedPlaces holds "Goa" until release is closed; other input answers at once.
type gatedPlaces struct {
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	inputs []string
	tokens map[string]string
}

func newGatedPlaces() *gatedPlaces {
	return &gatedPlaces{started: make(chan struct{}), release: make(chan struct{}), tokens: map[string]string{}}
}

func (g *gatedPlaces) Autocomplete(ctx context.Context, input, token string) ([]backend.Suggestion, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, input)
	g.tokens[input] = token
	g.mu.Unlock()
	if input == "Goa" {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []backend.Suggestion{{Description: input, PlaceID: "p-" + input}}, nil
}

func decodeSuggestions(t *testing.T, w *httptest.ResponseRecorder) ([]backend.Suggestion, bool) {
	t.Helper()
	var body struct {
		Suggestions []backend.Suggestion `json:"suggestions"`
		Superseded  bool                 `json:"superseded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Suggestions, body.Superseded
}

func TestPlacesAutocomplete_DestinationRowsAreIndependent(t *testing.T) {
	places := newGatedPlaces()
	r, _ := newTestEngineWith(nil, places)
	jar := cookieJar{}
	jar.do(r, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-0&input=G", nil))

	firstRow := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-0&input=Goa", nil)
		for _, ck := range jar {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		firstRow <- w
	}()
	select {
	case <-places.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("first row never reached the places API")
	}

	w := jar.do(r, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-1&input=Mumbai", nil))
	out, superseded := decodeSuggestions(t, w)
	if superseded || len(out) != 1 || out[0].Description != "Mumbai" {
		t.Fatalf("second row = %+v superseded=%v", out, superseded)
	}
	close(places.release)

	var w1 *httptest.ResponseRecorder
	select {
	case w1 = <-firstRow:
	case <-time.After(2 * time.Second):
		t.Fatalf("first row never answered")
	}
	out, superseded = decodeSuggestions(t, w1)
	if superseded || len(out) != 1 || out[0].Description != "Goa" {
		t.Fatalf("first row was cancelled by the second: %+v superseded=%v", out, superseded)
	}

	places.mu.Lock()
	defer places.mu.Unlock()
	if places.tokens["Goa"] == "" || places.tokens["Goa"] == places.tokens["Mumbai"] {
		t.Fatalf("rows share a places session token: %v", places.tokens)
	}
}

func TestPlacesAutocomplete_SameRowSupersedes(t *testing.T) {
	places := newGatedPlaces()
	r, _ := newTestEngineWith(nil, places)
	jar := cookieJar{}
	jar.do(r, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-0&input=G", nil))

	firstCall := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-0&input=Goa", nil)
		for _, ck := range jar {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		firstCall <- w
	}()
	<-places.started

	jar.do(r, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-0&input=Goa%20Beach", nil))
	w := <-firstCall
	if _, superseded := decodeSuggestions(t, w); !superseded {
		t.Fatalf("older search on the same row was not superseded: %s", w.Body.String())
	}
}

func TestPlacesAutocomplete_OriginBiasedByDestination(t *testing.T) {
	places := newGatedPlaces()
	r, _ := newTestEngineWith(nil, places)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=from&input=Shivaji%20Nagar&bias=Pune", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	places.mu.Lock()
	defer places.mu.Unlock()
	if len(places.inputs) != 1 || places.inputs[0] != "Pune Shivaji Nagar" {
		t.Fatalf("places query = %v", places.inputs)
	}
}

func TestHome_AutocompleteAttributes(t *testing.T) {
	r, _ := newTestEngine()
	w := postForm(r, "/search", url.Values{"action": {"add"}, "to": {"Goa"}})
	body := w.Body.String()

	if !strings.Contains(body, `data-autocomplete="from" data-bias-from="to"`) {
		t.Fatalf("origin input is not biased by the destination")
	}
	for _, field := range []string{`data-autocomplete="to-0"`, `data-autocomplete="to-1"`} {
		if !strings.Contains(body, field) {
			t.Fatalf("missing %s", field)
		}
	}
}

func TestPlacesSelect_ResetsToken(t *testing.T) {
	r, store := newTestEngine()
	jar := cookieJar{}
	jar.do(r, httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?field=to-0&input=G", nil))
	sid := jar.sessionID(t)

	w := jar.do(r, formRequest("/api/places/select", url.Values{"field": {"to-0"}}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	st, err := store.Load(context.Background(), sid)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := st.PlacesTokens["to-0"]; ok {
		t.Fatalf("places token not reset")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ValidationError{Msg: "x"}, http.StatusBadRequest, "validation_error"},
		{domain.ResolutionError{Labels: []string{"Atlantis"}}, http.StatusUnprocessableEntity, "resolution_failed"},
		{domain.BackendError{Status: 404}, http.StatusNotFound, "backend_rejected"},
		{domain.BackendError{Status: 500}, http.StatusBadGateway, "backend_rejected"},
		{domain.TransportError{Err: errors.New("reset")}, http.StatusBadGateway, "backend_unreachable"},
		{domain.EmptyResponseError{}, http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		status, code := errorStatus(tt.err)
		if status != tt.status || code != tt.code {
			t.Fatalf("%T: got %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}
