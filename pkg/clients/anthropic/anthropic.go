package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	model          = "claude-3-haiku-20240307"
	maxTokens      = 1024
)

const systemPrompt = `You are a senior sales data analyst for a memorial park that sells columbarium niches, ancestral tablets and life seats.
You review the sales reports submitted by the sales representatives and write a short, professional and encouraging briefing.
Focus on:
1. Total revenue for the period.
2. Top performing sales representatives.
3. Most popular product types.
4. Whether discount rates look too high.
5. Trends in customer sources.
Answer with concise bullet points.`

// Client defines the narrative summarizer used by the dashboard.
type Client interface {
	SummarizeSales(ctx context.Context, records []SalesDigest) (string, error)
}

// SalesDigest is the reduced view of one record sent to the model.
type SalesDigest struct {
	Type     string  `json:"type"`
	Date     string  `json:"date"`
	Rep      string  `json:"rep"`
	Product  string  `json:"product"`
	Price    float64 `json:"price"`
	Received float64 `json:"received"`
	Source   string  `json:"source"`
	Discount string  `json:"discount"`
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client. An empty baseURL uses the public API.
func NewClient(apiKey, baseURL string) Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(30 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) SummarizeSales(ctx context.Context, records []SalesDigest) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sales digest: %w", err)
	}

	prompt := fmt.Sprintf("Here are the current sales reports (JSON):\n%s\n\nWrite a short daily performance briefing as a bullet list.", data)

	reqBody := messageRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      systemPrompt,
		Temperature: 0.7,
		Messages:    []Message{{Role: "user", Content: prompt}},
	}

	var respBody messageResponse
	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(apiErr).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: status=%d, message=%s", resp.StatusCode(), apiErr.Error.Message)
	}

	var parts []string
	for _, block := range respBody.Content {
		if text := strings.TrimSpace(block.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return strings.Join(parts, "\n"), nil
}
