package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/aichat"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

var (
	domain = "https://generativelanguage.googleapis.com"

	ErrEmptyCandidate = errors.New("model returned no text")
)

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: domain,
		client:  &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Complete returns the model reply to messages.
func (c *Client) Complete(ctx context.Context, system string, messages []aichat.Message, maxTokens int) (string, error) {
	const op = "GeminiClient.Complete"

	if c.apiKey == "" {
		return "", types.ErrNotConfigured
	}

	body := generateRequest{
		Contents:         make([]content, 0, len(messages)),
		GenerationConfig: generationConfig{MaxOutputTokens: maxTokens},
	}
	if system != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	for _, m := range messages {
		role := "user"
		if m.Role == aichat.RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: failed to make request to Gemini: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, resp.StatusCode))
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		ctx = wrap.WithAction(ctx, "decode_gemini_payload")
		return "", wrap.Error(ctx, fmt.Errorf("%s: failed to decode Gemini response: %w", op, err))
	}

	var sb strings.Builder
	if len(payload.Candidates) > 0 {
		for _, p := range payload.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, ErrEmptyCandidate))
	}
	return reply, nil
}
