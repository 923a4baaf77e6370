package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dotrip/internal/domain/models"
)

// DefaultStateTTL bounds how long an abandoned booking attempt is kept.
const DefaultStateTTL = 30 * time.Minute

var ErrStateNotFound = errors.New("session: wizard state not found")

// StateStore persists wizard state between requests of one session.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (*models.WizardState, error)
	Save(ctx context.Context, state *models.WizardState) error
	Delete(ctx context.Context, sessionID string) error
}

// LoadOrNew returns the stored state or a fresh one when none exists.
func LoadOrNew(ctx context.Context, store StateStore, sessionID string) (*models.WizardState, error) {
	st, err := store.Load(ctx, sessionID)
	if errors.Is(err, ErrStateNotFound) {
		return models.NewWizardState(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard state: %w", err)
	}
	if st.PlacesTokens == nil {
		st.PlacesTokens = map[string]string{}
	}
	return st, nil
}
