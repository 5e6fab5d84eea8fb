package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/config"
)

// systemPrompt fixes the output shape the parser expects: one or more DATE:
// blocks, each followed by pipe-delimited roll/name/status lines.
const systemPrompt = `You are an OCR assistant for attendance sheets. IMPORTANT: Weekly attendance sheets may have MULTIPLE DATES across the top (columns). For EACH date found, extract all students attendance for that date. Format your response as follows:

DATE: DD/MM/YYYY
101 | John Doe | present
102 | Jane Smith | absent

DATE: DD/MM/YYYY
101 | John Doe | late
102 | Jane Smith | present

If a student has no mark for a date, mark them as "absent". Extract ALL dates you see at the top of the sheet.`

const userPrompt = "Please extract the attendance information from this handwritten sheet. List each student with their attendance status."

var (
	// ErrRateLimited maps the gateway's 429 response; surfaced verbatim to
	// the caller, never retried here.
	ErrRateLimited = errors.New("ocr gateway rate limit exceeded")
	// ErrQuotaExceeded maps the gateway's 402 response (credits exhausted).
	ErrQuotaExceeded = errors.New("ocr gateway quota exceeded")
)

// GatewayClient calls an OpenAI-compatible chat-completions endpoint with a
// vision model to turn an attendance sheet photo into text.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGatewayClient(cfg config.OCRConfig, logger *slog.Logger) *GatewayClient {
	timeout := cfg.TimeoutSeconds
	if timeout == 0 {
		timeout = 60
	}

	return &GatewayClient{
		baseURL: cfg.GatewayURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		logger: logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractText submits a base64 data-URL image to the vision gateway and
// returns the raw extracted text. The context bounds the call in addition to
// the client timeout; cancellation propagates to the gateway request.
func (c *GatewayClient) ExtractText(ctx context.Context, imageBase64 string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imageBase64}},
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build ocr request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "calling ocr gateway", "model", c.model)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "ocr gateway error", "status", resp.StatusCode, "body", string(errText))

		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", ErrRateLimited
		case http.StatusPaymentRequired:
			return "", ErrQuotaExceeded
		default:
			return "", fmt.Errorf("ocr gateway returned status %d", resp.StatusCode)
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode ocr response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}

	return parsed.Choices[0].Message.Content, nil
}
