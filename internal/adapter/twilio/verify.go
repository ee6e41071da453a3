package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpyride/hpyride/internal/domain/types"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

const StatusApproved = "approved"

var domain = "https://verify.twilio.com"

// VerifyClient sends and checks SMS codes through the Twilio Verify API.
type VerifyClient struct {
	accountSID string
	authToken  string
	serviceSID string
	baseURL    string
	client     *http.Client
}

func New(accountSID, authToken, serviceSID string, timeout time.Duration) *VerifyClient {
	return &VerifyClient{
		accountSID: accountSID,
		authToken:  authToken,
		serviceSID: serviceSID,
		baseURL:    domain,
		client:     &http.Client{Timeout: timeout},
	}
}

type verificationPayload struct {
	Status string `json:"status"`
	Valid  bool   `json:"valid"`
}

type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendCode starts an SMS verification and returns its status ("pending" on success).
func (c *VerifyClient) SendCode(ctx context.Context, phone string) (string, error) {
	const op = "VerifyClient.SendCode"

	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", "sms")

	payload, err := c.post(ctx, "Verifications", form)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return payload.Status, nil
}

// CheckCode reports whether code is the one sent to phone.
func (c *VerifyClient) CheckCode(ctx context.Context, phone, code string) (bool, error) {
	const op = "VerifyClient.CheckCode"

	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)

	payload, err := c.post(ctx, "VerificationCheck", form)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return payload.Valid || payload.Status == StatusApproved, nil
}

func (c *VerifyClient) post(ctx context.Context, resource string, form url.Values) (*verificationPayload, error) {
	if c.accountSID == "" || c.authToken == "" || c.serviceSID == "" {
		return nil, types.ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/v2/Services/%s/%s", c.baseURL, c.serviceSID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("failed to make request to Twilio: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorPayload
		_ = json.NewDecoder(resp.Body).Decode(&e)
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("unexpected response status %d: %s", resp.StatusCode, e.Message))
	}

	var payload verificationPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		ctx = wrap.WithAction(ctx, "decode_twilio_payload")
		return nil, wrap.Error(ctx, fmt.Errorf("failed to decode Twilio response: %w", err))
	}
	return &payload, nil
}
