package session

import (
	"errors"
	"net/http"
	"sync"
	"time"
)

// Area is one local persistence area (a cookie jar slice, or memory in tests).
type Area interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

var ErrValueTooLarge = errors.New("session: value too large for a cookie")

const maxCookieValue = 3800

// CookieArea stores each key in its own sealed cookie named key+suffix.
// Writes made during the request are visible to later reads of the same
// request.
type CookieArea struct {
	r      *http.Request
	w      http.ResponseWriter
	sealer *Sealer
	suffix string
	maxAge time.Duration
	secure bool

	mu      sync.Mutex
	written map[string]*string
}

// Durable cookies survive a browser restart for 30 days.
const DurableMaxAge = 30 * 24 * time.Hour

// NewDurableArea persists for DurableMaxAge.
func NewDurableArea(w http.ResponseWriter, r *http.Request, sealer *Sealer, secure bool) *CookieArea {
	return &CookieArea{r: r, w: w, sealer: sealer, maxAge: DurableMaxAge, secure: secure}
}

// NewSessionArea lives until the browser session ends (no Max-Age).
func NewSessionArea(w http.ResponseWriter, r *http.Request, sealer *Sealer, secure bool) *CookieArea {
	return &CookieArea{r: r, w: w, sealer: sealer, suffix: "_s", secure: secure}
}

func (a *CookieArea) name(key string) string { return key + a.suffix }

func (a *CookieArea) Get(key string) (string, bool) {
	a.mu.Lock()
	if v, ok := a.written[key]; ok {
		a.mu.Unlock()
		if v == nil {
			return "", false
		}
		return *v, true
	}
	a.mu.Unlock()

	c, err := a.r.Cookie(a.name(key))
	if err != nil || c.Value == "" {
		return "", false
	}
	v, err := a.sealer.Open(c.Value)
	if err != nil {
		return "", false
	}
	return v, true
}

func (a *CookieArea) Set(key, value string) error {
	sealed, err := a.sealer.Seal(value)
	if err != nil {
		return err
	}
	if len(sealed) > maxCookieValue {
		return ErrValueTooLarge
	}
	c := &http.Cookie{
		Name:     a.name(key),
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if a.maxAge > 0 {
		c.MaxAge = int(a.maxAge.Seconds())
	}
	http.SetCookie(a.w, c)
	a.remember(key, &value)
	return nil
}

func (a *CookieArea) Delete(key string) error {
	http.SetCookie(a.w, &http.Cookie{
		Name:     a.name(key),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	a.remember(key, nil)
	return nil
}

func (a *CookieArea) remember(key string, v *string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.written == nil {
		a.written = map[string]*string{}
	}
	a.written[key] = v
}

// MemoryArea keeps values in a map. Failing makes every write error, which
// stands in for disabled storage.
type MemoryArea struct {
	mu      sync.Mutex
	values  map[string]string
	Failing bool
}

func NewMemoryArea() *MemoryArea {
	return &MemoryArea{values: map[string]string{}}
}

var ErrAreaUnavailable = errors.New("session: storage area unavailable")

func (m *MemoryArea) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok && v != ""
}

func (m *MemoryArea) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Failing {
		return ErrAreaUnavailable
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *MemoryArea) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Failing {
		return ErrAreaUnavailable
	}
	delete(m.values, key)
	return nil
}
