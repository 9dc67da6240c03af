package apiclient

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// SessionExpiry reads the exp claim off a session JWT without verifying the
// signature. The client holds no keys; the point is only to preempt requests
// the backend is guaranteed to reject with 401.
func SessionExpiry(raw string) (time.Time, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("session token has no expiry claim")
	}
	return exp.Time, nil
}

// SessionExpired reports whether the stored session token is absent, opaque,
// or past its expiry. Tokens the client cannot parse count as expired.
func (c *Client) SessionExpired() bool {
	token := c.SessionToken()
	if token == "" {
		return true
	}
	exp, err := SessionExpiry(token)
	if err != nil {
		return true
	}
	return time.Now().After(exp)
}
