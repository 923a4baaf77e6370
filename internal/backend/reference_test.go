package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListCities_BareAndWrappedLists(t *testing.T) {
	for _, body := range []string{
		`[{"id":1,"name":"Pune","state":"Maharashtra"}]`,
		`{"data":[{"id":"1","name":"Pune","state":"Maharashtra"}]}`,
	} {
		body := body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		cities, err := NewClient(srv.URL, 0, nil).ListCities(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("ListCities(%s): %v", body, err)
		}
		if len(cities) != 1 || cities[0].ID.Int64() != 1 || cities[0].State != "Maharashtra" {
			t.Fatalf("cities = %+v", cities)
		}
	}
}

func TestAutocomplete_PredictionsEnvelope(t *testing.T) {
	var gotToken, gotInput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInput = r.URL.Query().Get("input")
		gotToken = r.URL.Query().Get("sessiontoken")
		_, _ = w.Write([]byte(`{"predictions":[{"description":"MG Road, Pune","place_id":"p1"}]}`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, 0, nil).Autocomplete(context.Background(), "Pune MG", "tok-9")
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(out) != 1 || out[0].PlaceID != "p1" {
		t.Fatalf("suggestions = %+v", out)
	}
	if gotInput != "Pune MG" || gotToken != "tok-9" {
		t.Fatalf("query input=%q token=%q", gotInput, gotToken)
	}
}
