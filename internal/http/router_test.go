package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	intconfig "dotrip/internal/config"
	"dotrip/internal/http/handlers"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"
	"dotrip/internal/session"
	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	sessions := &middleware.Sessions{
		IDs:    session.NewIDs("router-secret", false),
		Sealer: session.NewSealer("router-secret"),
		Store:  session.NewMemoryStore(time.Hour),
	}
	hs := &handlers.Handlers{
		Sessions: sessions,
		Booking:  &services.BookingService{},
		Places:   services.NewCancellableSearch(nil, 0, nil),
	}
	return NewRouter(intconfig.Env{RateLimitPerMin: 60}, Deps{
		Handlers: hs,
		Sessions: sessions,
		Limiter:  middleware.NewRateLimiter(60),
	})
}

// observeLogs swaps the global logger for one recording entries at Debug
// and above.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := utils.GetLogger()
	utils.SetLogger(zap.New(core))
	t.Cleanup(func() { utils.SetLogger(prev) })
	return logs
}

func TestRouter_NoRouteIsJSON(t *testing.T) {
	logs := observeLogs(t)
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "route not found" || body["path"] != "/nope" {
		t.Fatalf("body = %v", body)
	}

	entries := logs.FilterMessage("http").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("request log entries = %+v", entries)
	}
	if entries[0].ContextMap()["status"] != int64(http.StatusNotFound) {
		t.Fatalf("logged fields = %v", entries[0].ContextMap())
	}
}

func TestRouter_HealthAndRoutes(t *testing.T) {
	observeLogs(t)
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/routes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("routes status = %d", w.Code)
	}
	var body struct {
		Routes []struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]bool{
		"POST /booking/otp/verify":     false,
		"GET /api/places/autocomplete": false,
		"POST /api/places/select":      false,
		"GET /booking-confirmation":    false,
	}
	for _, rt := range body.Routes {
		key := rt.Method + " " + rt.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Fatalf("route %s not mounted", key)
		}
	}
}
