package phoneemail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpyride/hpyride/internal/domain/types"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

var ErrUntrustedURL = errors.New("verification url host is not allowed")

// DefaultHosts are the hosts phone.email serves verified user JSON from.
var DefaultHosts = []string{"user.phone.email"}

// Resolver reads the verified phone number from a phone.email user JSON URL.
type Resolver struct {
	hosts  []string
	client *http.Client
}

func New(hosts []string, timeout time.Duration) *Resolver {
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	return &Resolver{
		hosts:  hosts,
		client: &http.Client{Timeout: timeout},
	}
}

type userPayload struct {
	CountryCode string `json:"user_country_code"`
	PhoneNumber string `json:"user_phone_number"`
}

// Resolve fetches rawURL and returns the phone in E.164 form.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	const op = "PhoneEmailResolver.Resolve"

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || !r.allowed(u.Hostname()) {
		return "", fmt.Errorf("%s: %w", op, ErrUntrustedURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: failed to make request to phone.email: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, resp.StatusCode))
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		ctx = wrap.WithAction(ctx, "decode_phone_email_payload")
		return "", wrap.Error(ctx, fmt.Errorf("%s: failed to decode phone.email response: %w", op, err))
	}

	return JoinPhone(payload.CountryCode, payload.PhoneNumber), nil
}

func (r *Resolver) allowed(host string) bool {
	for _, h := range r.hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// JoinPhone builds "+<country><number>" keeping only digits.
func JoinPhone(countryCode, number string) string {
	digits := func(s string) string {
		var sb strings.Builder
		for _, c := range s {
			if c >= '0' && c <= '9' {
				sb.WriteRune(c)
			}
		}
		return sb.String()
	}
	cc, n := digits(countryCode), digits(number)
	if cc == "" && n == "" {
		return ""
	}
	return "+" + cc + n
}
