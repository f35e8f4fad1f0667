package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateValidity = 10 * time.Minute

type stateClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// StateSigner issues OAuth state values bound to the caller's session, so a
// callback can only complete the flow the same browser started.
type StateSigner struct {
	secret []byte
	now    func() time.Time
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret), now: time.Now}
}

func (s *StateSigner) Issue(sessionID string) (string, error) {
	now := s.now()
	claims := stateClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateValidity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *StateSigner) Verify(state, sessionID string) error {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return ErrInvalidState
	}
	if claims.SessionID == "" || claims.SessionID != sessionID {
		return ErrInvalidState
	}
	return nil
}
