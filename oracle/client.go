// client.go implements the Client organism that talks to the
// OpenAI-compatible reasoning endpoint. It composes:
//   - atoms.go: payload validation, data URL encoding, JSON extraction
//   - prompt.go: audit prompt construction
//   - logging.Logger: structured logging
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"freightaudit/logging"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client errors.
var (
	// ErrNoAPIKey indicates the client was constructed without credentials.
	ErrNoAPIKey = errors.New("oracle: API key is required")

	// ErrNilLogger indicates a nil logger was supplied.
	ErrNilLogger = errors.New("oracle: logger is required")

	// ErrEmptyResponse indicates the service returned no choices.
	ErrEmptyResponse = errors.New("oracle: empty response from reasoning service")

	// ErrMalformedReport indicates the response did not parse into the
	// report schema.
	ErrMalformedReport = errors.New("oracle: response does not match report schema")
)

// ClientConfig configures the oracle client.
type ClientConfig struct {
	// APIKey authenticates against the reasoning service.
	APIKey string

	// BaseURL overrides the endpoint for self-hosted OpenAI-compatible
	// deployments. Empty selects the default cloud API.
	BaseURL string

	// Model is the multimodal model identifier.
	Model string

	// MaxImageSize caps each embedded image in bytes (0 = no limit).
	MaxImageSize int64

	// MaxTokens bounds the report length.
	MaxTokens int

	// HTTPClient carries timeout and TLS settings. Nil uses a default
	// 120s client.
	HTTPClient *http.Client
}

// DefaultClientConfig returns sensible defaults for the given key.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:       apiKey,
		Model:        "gpt-4o",
		MaxImageSize: 20 * 1024 * 1024,
		MaxTokens:    1500,
	}
}

// Client performs audits against the external reasoning service.
//
// Thread-Safety:
//   - Client is safe for concurrent use; each Audit call is independent.
type Client struct {
	config ClientConfig
	api    *openai.Client
	logger *logging.Logger
}

// NewClient creates an oracle Client.
func NewClient(config ClientConfig, logger *logging.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}
	if config.HTTPClient != nil {
		apiConfig.HTTPClient = config.HTTPClient
	} else {
		apiConfig.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		config: config,
		api:    openai.NewClientWithConfig(apiConfig),
		logger: logger.Named("oracle"),
	}, nil
}

// GetMaskedAPIKey returns a masked key for safe logging.
func (c *Client) GetMaskedAPIKey() string {
	return MaskAPIKey(c.config.APIKey)
}

// Audit submits one delivery audit and returns the parsed report.
//
// The goods image is always attached; the document goes along either as a
// second image or as extracted PDF text. Image payloads are validated
// before the network call so oversized or unsupported uploads fail fast.
func (c *Client) Audit(ctx context.Context, input AuditInput) (*InspectionReport, error) {
	if err := ValidateImagePayload(input.GoodsImage, c.config.MaxImageSize); err != nil {
		return nil, err
	}
	if input.DocumentImage != nil {
		if err := ValidateImagePayload(*input.DocumentImage, c.config.MaxImageSize); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	log := c.logger.With(
		zap.Int("goods_bytes", len(input.GoodsImage.Data)),
		zap.Bool("degraded", input.Degraded),
	)
	log.Info("submitting audit to reasoning service")

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: BuildUserPrompt(input)},
		{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: EncodeDataURL(input.GoodsImage)},
		},
	}
	if input.DocumentImage != nil {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: EncodeDataURL(*input.DocumentImage)},
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: auditSystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		log.Error("reasoning service call failed", zap.Error(err))
		return nil, fmt.Errorf("oracle: reasoning service error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	report, err := parseReport(resp.Choices[0].Message.Content)
	if err != nil {
		log.Error("failed to parse oracle report", zap.Error(err))
		return nil, err
	}

	// The disclaimer travels with the stored result, not just the prompt.
	report.DegradedAccuracy = input.Degraded

	log.Info("audit completed",
		zap.String("status", string(report.Status)),
		zap.Int("anomalies", len(report.Anomalies)),
		zap.Duration("duration", time.Since(start)))

	return report, nil
}

// parseReport extracts and decodes the report JSON from model output.
func parseReport(content string) (*InspectionReport, error) {
	jsonText, err := ExtractJSONFromText(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}

	var report InspectionReport
	if err := json.Unmarshal([]byte(jsonText), &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}

	if report.Status != StatusPass && report.Status != StatusAttention && report.Status != StatusFail {
		return nil, fmt.Errorf("%w: unknown status %q", ErrMalformedReport, report.Status)
	}

	return &report, nil
}
