package salesapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// ErrUnauthorized is returned when the server rejects the admin key.
var ErrUnauthorized = errors.New("salesapi: invalid admin key")

// APIError is a non-2xx answer from the sales server.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("salesapi: status %d: %s (field %s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("salesapi: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running sales server. Records are created server side
// through Submit, which assigns the id and timestamp.
type Client struct {
	httpClient *resty.Client
	adminKey   string
}

// NewClient builds a client for the server at baseURL.
func NewClient(baseURL, adminKey string) *Client {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Reads only; a retried POST could append twice.
			return err == nil && r.Request.Method == http.MethodGet && r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{httpClient: restyClient, adminKey: adminKey}
}

type envelope[T any] struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Data   T      `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field"`
	Error   string `json:"error"`
}

// Submit posts a form payload and returns the record the server stored.
func (c *Client) Submit(ctx context.Context, in models.RecordInput) (models.SalesRecord, error) {
	result := new(envelope[models.SalesRecord])
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(result).
		SetError(apiErr).
		Post("/api/records")
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("submit record: %w", err)
	}
	if err := checkStatus(resp, apiErr); err != nil {
		return models.SalesRecord{}, err
	}
	return result.Data, nil
}

// LoadAll fetches every stored record.
func (c *Client) LoadAll(ctx context.Context) ([]models.SalesRecord, error) {
	result := new(envelope[[]models.SalesRecord])
	if err := c.get(ctx, "/api/records", result); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if result.Data == nil {
		return []models.SalesRecord{}, nil
	}
	return result.Data, nil
}

// Dashboard fetches the server-side aggregate view.
func (c *Client) Dashboard(ctx context.Context) (models.DashboardSummary, error) {
	result := new(envelope[models.DashboardSummary])
	if err := c.get(ctx, "/api/dashboard", result); err != nil {
		return models.DashboardSummary{}, fmt.Errorf("load dashboard: %w", err)
	}
	return result.Data, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	apiErr := new(errorBody)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Admin-Key", c.adminKey).
		SetResult(result).
		SetError(apiErr).
		Get(path)
	if err != nil {
		return err
	}
	return checkStatus(resp, apiErr)
}

func checkStatus(resp *resty.Response, body *errorBody) error {
	code := resp.StatusCode()
	switch {
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code < http.StatusBadRequest:
		return nil
	}

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(code)
	}
	return &APIError{StatusCode: code, Message: message, Field: body.Field}
}
