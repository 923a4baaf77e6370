package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie carries the signed wizard session id.
const SessionCookie = "dotrip_sid"

var ErrInvalidSession = errors.New("session: invalid session id")

type sidClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// IDs issues and verifies session ids signed with HS256.
type IDs struct {
	secret []byte
	secure bool
	now    func() time.Time
}

func NewIDs(secret string, secure bool) *IDs {
	return &IDs{secret: []byte(secret), secure: secure, now: time.Now}
}

// Issue mints a fresh id and its signed cookie value.
func (s *IDs) Issue() (sid, signed string, err error) {
	sid = uuid.NewString()
	claims := sidClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
			Issuer:   "dotrip",
		},
	}
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return sid, signed, nil
}

// Parse verifies a cookie value and returns the session id inside.
func (s *IDs) Parse(signed string) (string, error) {
	var claims sidClaims
	tok, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer("dotrip"))
	if err != nil || !tok.Valid || claims.SID == "" {
		return "", ErrInvalidSession
	}
	return claims.SID, nil
}

// Resolve reads the session cookie or issues a new one on w.
func (s *IDs) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if sid, err := s.Parse(c.Value); err == nil {
			return sid, nil
		}
	}
	sid, signed, err := s.Issue()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}
