package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"shelbyadmin/pkg/domain"
)

const verificationBase = "/api/user-verification"

// VerificationStatus fetches the current status of the verification request
// for an email address.
func (c *Client) VerificationStatus(ctx context.Context, email string) (domain.VerificationStatus, error) {
	var resp struct {
		Status domain.VerificationStatus `json:"status"`
	}
	path := verificationBase + "/status/" + url.PathEscape(email)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// RequestVerification creates a verification request for an email address.
func (c *Client) RequestVerification(ctx context.Context, email string) (domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	payload := map[string]string{"email": email}
	if err := c.doJSON(ctx, http.MethodPost, verificationBase+"/request", payload, &req); err != nil {
		return domain.VerificationRequest{}, err
	}
	return req, nil
}

// ResendVerification re-sends the verification mail for a pending request.
func (c *Client) ResendVerification(ctx context.Context, email string) (domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	payload := map[string]string{"email": email}
	if err := c.doJSON(ctx, http.MethodPost, verificationBase+"/resend", payload, &req); err != nil {
		return domain.VerificationRequest{}, err
	}
	return req, nil
}

// AdminAllVerifications lists every verification request (admin only).
func (c *Client) AdminAllVerifications(ctx context.Context) ([]domain.VerificationRequest, error) {
	raw, err := c.do(ctx, http.MethodGet, verificationBase+"/admin/all", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[domain.VerificationRequest](raw, "requests")
}

// AdminApproveVerification marks a request verified (admin only).
func (c *Client) AdminApproveVerification(ctx context.Context, email string) error {
	path := verificationBase + "/admin/approve/" + url.PathEscape(email)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// AdminRejectVerification rejects a request (admin only).
func (c *Client) AdminRejectVerification(ctx context.Context, email string) error {
	path := verificationBase + "/admin/reject/" + url.PathEscape(email)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// AdminCancelVerification cancels a pending request (admin only).
func (c *Client) AdminCancelVerification(ctx context.Context, email string) error {
	path := verificationBase + "/admin/cancel/" + url.PathEscape(email)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
