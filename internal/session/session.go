// Package session parses the access token issued by the auth collaborator.
// The client never issues tokens; it only needs the store binding and actor
// identity carried in the claims to initialize its mirror.
package session

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

type Session struct {
	StoreID   string
	UserID    string
	Username  string
	Role      string
	ExpiresAt time.Time
}

type accessClaims struct {
	jwtlib.RegisteredClaims
	StoreID string `json:"store_id"`
	Role    string `json:"role"`
	Name    string `json:"name"`
}

// Parse validates an HS256 access token and extracts the session. The
// subject claim is the user id.
func Parse(secret string, tokenStr string) (Session, error) {
	claims := &accessClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Session{}, errors.New("invalid or expired token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Session{}, errors.New("token missing subject")
	}
	if claims.StoreID == "" {
		return Session{}, errors.New("token missing store binding")
	}

	sess := Session{
		StoreID:  claims.StoreID,
		UserID:   sub,
		Username: claims.Name,
		Role:     claims.Role,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return sess, nil
}
