package session

import (
	"strings"

	"dotrip/internal/utils"

	"go.uber.org/zap"
)

const (
	TokenKey         = "access_token"
	LastBookingIDKey = "lastBookingId"
)

// TokenStore keeps the access token in two areas so it survives either a
// browser restart (durable) or at least the tab lifetime (session). It also
// owns the session-scoped "last booking id" fallback.
type TokenStore struct {
	Durable Area
	Session Area
}

func NewTokenStore(durable, session Area) *TokenStore {
	return &TokenStore{Durable: durable, Session: session}
}

// SetToken writes both areas. Write failures are ignored.
func (s *TokenStore) SetToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	names := []string{"durable", "session"}
	for i, area := range []Area{s.Durable, s.Session} {
		if area == nil {
			continue
		}
		if err := area.Set(TokenKey, token); err != nil {
			utils.GetLogger().Debug("token write skipped", zap.String("area", names[i]), zap.Error(err))
		}
	}
}

// Token prefers the durable area. Empty means no token is held.
func (s *TokenStore) Token() string {
	for _, area := range []Area{s.Durable, s.Session} {
		if area == nil {
			continue
		}
		if v, ok := area.Get(TokenKey); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ClearToken drops the token from both areas, e.g. after a 401.
func (s *TokenStore) ClearToken() {
	for _, area := range []Area{s.Durable, s.Session} {
		if area != nil {
			_ = area.Delete(TokenKey)
		}
	}
}

func (s *TokenStore) SetLastBookingID(id string) {
	if s.Session == nil || strings.TrimSpace(id) == "" {
		return
	}
	if err := s.Session.Set(LastBookingIDKey, strings.TrimSpace(id)); err != nil {
		utils.GetLogger().Debug("last booking id write skipped", zap.Error(err))
	}
}

func (s *TokenStore) LastBookingID() string {
	if s.Session == nil {
		return ""
	}
	v, _ := s.Session.Get(LastBookingIDKey)
	return strings.TrimSpace(v)
}
