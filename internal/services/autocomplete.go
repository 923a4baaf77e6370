package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"dotrip/internal/backend"
	"dotrip/internal/metrics"
)

// ErrSuperseded is returned to a search that a newer one for the same key
// cancelled.
var ErrSuperseded = errors.New("autocomplete: superseded by a newer request")

const (
	DefaultDebounce    = 300 * time.Millisecond
	MinAutocompleteLen = 2
)

// CancellableSearch debounces place searches and keeps at most one in flight
// per key (session + field). A newer Search for a key aborts the older one,
// whether it is still waiting out the debounce or already calling the API.
type CancellableSearch struct {
	API      PlacesAPI
	Debounce time.Duration
	Metrics  *metrics.Metrics

	mu       sync.Mutex
	seq      uint64
	inflight map[string]searchSlot
}

type searchSlot struct {
	cancel context.CancelCauseFunc
	seq    uint64
}

func NewCancellableSearch(api PlacesAPI, debounce time.Duration, m *metrics.Metrics) *CancellableSearch {
	if debounce < 0 {
		debounce = 0
	}
	return &CancellableSearch{API: api, Debounce: debounce, Metrics: m, inflight: map[string]searchSlot{}}
}

// Query is biased by the city of the opposite endpoint.
func Query(input, bias string) string {
	return strings.TrimSpace(strings.TrimSpace(bias) + " " + strings.TrimSpace(input))
}

// Search returns suggestions for input. Input shorter than two characters
// yields an empty list without a call; it still cancels an older search.
func (s *CancellableSearch) Search(ctx context.Context, key, input, bias, sessionToken string) ([]backend.Suggestion, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	seq := s.register(key, cancel)
	defer s.release(key, seq)

	input = strings.TrimSpace(input)
	if len([]rune(input)) < MinAutocompleteLen {
		return []backend.Suggestion{}, nil
	}

	if s.Debounce > 0 {
		timer := time.NewTimer(s.Debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, s.abortErr(ctx)
		case <-timer.C:
		}
	}

	out, err := s.API.Autocomplete(ctx, Query(input, bias), sessionToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, s.abortErr(ctx)
		}
		return nil, err
	}
	return out, nil
}

// register installs cancel as the key's in-flight search, aborting the
// previous one with ErrSuperseded.
func (s *CancellableSearch) register(key string, cancel context.CancelCauseFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = map[string]searchSlot{}
	}
	if prev, ok := s.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	s.seq++
	s.inflight[key] = searchSlot{cancel: cancel, seq: s.seq}
	return s.seq
}

func (s *CancellableSearch) release(key string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.inflight[key]; ok && cur.seq == seq {
		delete(s.inflight, key)
	}
}

// InFlight reports how many keys have a search running.
func (s *CancellableSearch) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

func (s *CancellableSearch) abortErr(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		s.Metrics.AutocompleteSuperseded()
		return ErrSuperseded
	}
	return ctx.Err()
}
