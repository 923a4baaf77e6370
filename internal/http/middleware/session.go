package middleware

import (
	"net/http"

	"dotrip/internal/domain/models"
	"dotrip/internal/session"
	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionIDKey = "session_id"
	tokensKey    = "tokens"
	wizardKey    = "wizard_state"
)

// Sessions binds every request to its wizard session: the signed session id
// cookie, the token store over the two cookie areas and the wizard state.
type Sessions struct {
	IDs    *session.IDs
	Sealer *session.Sealer
	Store  session.StateStore
	Secure bool
}

func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := s.IDs.Resolve(c.Writer, c.Request)
		if err != nil {
			utils.GetLogger().Error("session id issue failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable", "request_id": GetRequestID(c)})
			return
		}

		tokens := session.NewTokenStore(
			session.NewDurableArea(c.Writer, c.Request, s.Sealer, s.Secure),
			session.NewSessionArea(c.Writer, c.Request, s.Sealer, s.Secure),
		)

		st, err := session.LoadOrNew(c.Request.Context(), s.Store, sid)
		if err != nil {
			// A broken store must not block browsing; start over.
			utils.GetLogger().Warn("wizard state load failed", zap.String("session_id", sid), zap.Error(err))
			st = models.NewWizardState(sid)
		}

		c.Set(sessionIDKey, sid)
		c.Set(tokensKey, tokens)
		c.Set(wizardKey, st)
		c.Next()
	}
}

// SaveState persists the request's wizard state. Handlers call it before
// writing the response so a following redirect sees the change.
func (s *Sessions) SaveState(c *gin.Context) error {
	st := WizardState(c)
	if st == nil {
		return nil
	}
	return s.Store.Save(c.Request.Context(), st)
}

// Update applies mutate to the request's state, then reloads the stored
// state, applies mutate to it as well and saves that copy. Fields mutate does
// not touch keep whatever the latest writer stored.
func (s *Sessions) Update(c *gin.Context, mutate func(*models.WizardState)) error {
	if st := WizardState(c); st != nil {
		mutate(st)
	}
	sid := SessionID(c)
	if sid == "" {
		return nil
	}
	latest, err := session.LoadOrNew(c.Request.Context(), s.Store, sid)
	if err != nil {
		return err
	}
	mutate(latest)
	return s.Store.Save(c.Request.Context(), latest)
}

func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Tokens returns the request's token store, or nil outside the middleware.
func Tokens(c *gin.Context) *session.TokenStore {
	if v, ok := c.Get(tokensKey); ok {
		if t, ok := v.(*session.TokenStore); ok {
			return t
		}
	}
	return nil
}

func WizardState(c *gin.Context) *models.WizardState {
	if v, ok := c.Get(wizardKey); ok {
		if st, ok := v.(*models.WizardState); ok {
			return st
		}
	}
	return nil
}

func SetWizardState(c *gin.Context, st *models.WizardState) {
	c.Set(wizardKey, st)
}
