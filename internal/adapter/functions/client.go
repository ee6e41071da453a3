package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
)

const (
	SendPushNotification = "send-push-notification"

	// ServiceKeyHeader authenticates service-to-service function calls.
	ServiceKeyHeader = "X-Service-Key"
	RequestIDHeader  = "X-Request-ID"
)

var ErrFunctionFailed = errors.New("function invocation failed")

// Client invokes named functions over HTTP.
type Client struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func New(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: timeout},
	}
}

// Invoke posts in as JSON to /functions/v1/{name} and decodes the response into out.
func (c *Client) Invoke(ctx context.Context, name string, in, out any) error {
	const op = "FunctionsClient.Invoke"

	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/v1/"+name, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceKey != "" {
		req.Header.Set(ServiceKeyHeader, c.serviceKey)
	}
	if id := wrap.RequestIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %s: %w", op, name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error any `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %s: %w: status %d: %v", op, name, ErrFunctionFailed, resp.StatusCode, e.Error))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %s: decode response: %w", op, name, err))
	}
	return nil
}

// Push requests one push notification through the send-push-notification function.
func (c *Client) Push(ctx context.Context, req models.PushRequest) (res models.PushResult, err error) {
	defer func() { metrics.RecordPushDelivery("function", err) }()

	if err = c.Invoke(ctx, SendPushNotification, req, &res); err != nil {
		return models.PushResult{}, err
	}
	return res, nil
}
