package apiclient

import (
	"context"
	"errors"
	"net/http"

	"shelbyadmin/pkg/domain"
)

// codeEmailNotVerified is the distinguished error code the login endpoint
// returns when the account exists but its email was never confirmed.
const codeEmailNotVerified = "EMAIL_NOT_VERIFIED"

// EmailNotVerifiedError signals a login blocked on pending email
// verification. Email holds the account's actual address when the backend
// includes it (it does when login was attempted by username).
type EmailNotVerifiedError struct {
	Email string
}

func (e *EmailNotVerifiedError) Error() string {
	return "email not verified"
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login authenticates with a username or email. On success the session token
// is stored on the client and attached to subsequent requests.
func (c *Client) Login(ctx context.Context, identifier, password string) (domain.User, error) {
	payload := map[string]string{"identifier": identifier, "password": password}
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", payload, &resp); err != nil {
		var ae *APIError
		if errors.As(err, &ae) && ae.Code == codeEmailNotVerified {
			return domain.User{}, &EmailNotVerifiedError{Email: ae.Email}
		}
		return domain.User{}, err
	}
	c.SetSessionToken(resp.Token)
	return resp.User, nil
}

// Logout drops the local session. The backend session is cookie/TTL scoped;
// there is no revocation endpoint to call.
func (c *Client) Logout() {
	c.SetSessionToken("")
}
