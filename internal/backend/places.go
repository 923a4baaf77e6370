package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
)

type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// Autocomplete calls GET /places/autocomplete. The proxy answers either a
// bare list or the provider's {"predictions": [...]} shape.
func (c *Client) Autocomplete(ctx context.Context, input, sessionToken string) ([]Suggestion, error) {
	q := url.Values{}
	q.Set("input", input)
	q.Set("sessiontoken", sessionToken)

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/places/autocomplete?"+q.Encode(), "places-autocomplete", nil, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Predictions []Suggestion `json:"predictions"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, err
		}
		return nonNil(wrapped.Predictions), nil
	}
	var list []Suggestion
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

func nonNil(s []Suggestion) []Suggestion {
	if s == nil {
		return []Suggestion{}
	}
	return s
}
