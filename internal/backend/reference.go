package backend

import (
	"bytes"
	"context"
	"encoding/json"

	"dotrip/internal/domain/models"
)

type City struct {
	ID    models.Number `json:"id"`
	Name  string        `json:"name"`
	State string        `json:"state"`
}

type TripTypeRef struct {
	ID    models.Number `json:"id"`
	Name  string        `json:"name"`
	Label string        `json:"label"`
}

// listEnvelope accepts both a bare array and {"data": [...]}.
type listEnvelope[T any] []T

func (l *listEnvelope[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			Data  []T `json:"data"`
			Items []T `json:"items"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		if wrapped.Data != nil {
			*l = wrapped.Data
		} else {
			*l = wrapped.Items
		}
		return nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func (c *Client) ListCities(ctx context.Context) ([]City, error) {
	var out listEnvelope[City]
	if err := c.getJSON(ctx, "/cities", "cities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListVehicleTypes(ctx context.Context) ([]models.VehicleOption, error) {
	var out listEnvelope[models.VehicleOption]
	if err := c.getJSON(ctx, "/vehicle-types", "vehicle-types", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTripTypes(ctx context.Context) ([]TripTypeRef, error) {
	var out listEnvelope[TripTypeRef]
	if err := c.getJSON(ctx, "/trip-types", "trip-types", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
