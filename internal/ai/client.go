package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrNoToken is returned when no API token can be resolved
var ErrNoToken = errors.New("no API token provided: set --ai-token flag or ANTHROPIC_API_KEY environment variable")

// Client wraps the Anthropic API client
type Client struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new AI client
func NewClient(model string, apiToken string, timeoutSeconds int) (*Client, error) {
	// Resolve API token: parameter > environment variable
	token := apiToken
	if token == "" {
		token = os.Getenv("ANTHROPIC_API_KEY")
	}
	if token == "" {
		return nil, ErrNoToken
	}

	// Create client with token
	client := anthropic.NewClient(option.WithAPIKey(token))

	// Map model name to model ID
	modelID := mapModelName(model)

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		client:  client,
		model:   modelID,
		timeout: timeout,
	}, nil
}

// mapModelName converts friendly model names to model IDs
func mapModelName(name string) string {
	switch strings.ToLower(name) {
	case "haiku":
		return "claude-3-5-haiku-latest"
	case "sonnet":
		return "claude-sonnet-4-20250514"
	case "opus":
		return "claude-opus-4-20250514"
	default:
		// Default to sonnet if unknown
		return "claude-sonnet-4-20250514"
	}
}

// Score asks the model for a maliciousness probability
func (c *Client) Score(ctx context.Context, features *FeatureSummary) (*ScoreResponse, error) {
	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := BuildScoringPrompt(features)

	// Call the API
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(int64(256)),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(ScoringSystemPrompt),
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}

	// Extract text content
	responseText := extractTextContent(message)
	if responseText == "" {
		return nil, errors.New("empty response from API")
	}

	response, err := parseScoreResponse(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Add token usage
	response.TokensUsed = int(message.Usage.InputTokens + message.Usage.OutputTokens)

	return response, nil
}

// extractTextContent extracts text from the message response
func extractTextContent(message *anthropic.Message) string {
	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

// parseScoreResponse parses the JSON response into ScoreResponse
func parseScoreResponse(text string) (*ScoreResponse, error) {
	// Clean up the response - extract JSON from potential markdown
	text = extractJSON(text)

	var raw struct {
		Probability *float64 `json:"probability"`
		Reason      string   `json:"reason"`
	}

	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	if raw.Probability == nil {
		return nil, errors.New("response has no probability")
	}
	if *raw.Probability < 0 || *raw.Probability > 1 {
		return nil, fmt.Errorf("probability %v out of range", *raw.Probability)
	}

	return &ScoreResponse{
		Probability: *raw.Probability,
		Reason:      raw.Reason,
	}, nil
}

// extractJSON extracts JSON from text that might contain markdown code blocks
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	// Try to extract from code blocks
	if strings.Contains(text, "```") {
		// Find JSON in code block
		start := strings.Index(text, "```json")
		if start == -1 {
			start = strings.Index(text, "```")
		}
		if start != -1 {
			// Find the end of the opening marker
			contentStart := strings.Index(text[start:], "\n")
			if contentStart != -1 {
				start = start + contentStart + 1
			}
		}

		end := strings.LastIndex(text, "```")
		if start != -1 && end > start {
			text = text[start:end]
		}
	}

	// Try to find JSON object boundaries
	text = strings.TrimSpace(text)
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")

	if jsonStart != -1 && jsonEnd > jsonStart {
		text = text[jsonStart : jsonEnd+1]
	}

	return strings.TrimSpace(text)
}

// GetModel returns the current model being used
func (c *Client) GetModel() string {
	return c.model
}

