package backend

import (
	"context"
	"net/url"

	"dotrip/internal/domain/models"
)

func (c *Client) GetUser(ctx context.Context, tokens TokenSource, id string) (*models.UserRecord, error) {
	var u models.UserRecord
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(id), "users-get", tokens, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me returns the caller's profile including saved addresses.
func (c *Client) Me(ctx context.Context, tokens TokenSource) (*models.Profile, error) {
	var p models.Profile
	if err := c.getJSON(ctx, "/users/me", "users-me", tokens, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
