package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/source"
)

// maxErrorBody caps how much of an error response is kept in the message
const maxErrorBody = 512

// Client talks to a herdbook HTTP API
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

var _ source.RemoteService = (*Client)(nil)

// NewClient creates a client for baseURL. A zero timeout uses the default request timeout.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &Client{
		baseURL:    u,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ListActivityRecords fetches one page of activities
func (c *Client) ListActivityRecords(ctx context.Context, q model.RecordQuery) ([]model.ActivityRecord, error) {
	var records []model.ActivityRecord
	if err := c.get(ctx, "/v1/activities", recordParams(q), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListTransactionRecords fetches one page of transactions
func (c *Client) ListTransactionRecords(ctx context.Context, q model.RecordQuery) ([]model.TransactionRecord, error) {
	var records []model.TransactionRecord
	if err := c.get(ctx, "/v1/transactions", recordParams(q), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetTransactionAggregate fetches the server-side transaction summary
func (c *Client) GetTransactionAggregate(ctx context.Context, q model.AggregateQuery) (*model.TransactionAggregate, error) {
	params := url.Values{}
	setString(params, "subject_id", q.SubjectID)
	setTime(params, "start", q.Start)
	setTime(params, "end", q.End)

	var agg model.TransactionAggregate
	if err := c.get(ctx, "/v1/transactions/aggregate", params, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// ListSubjects fetches every subject
func (c *Client) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := c.get(ctx, "/v1/subjects", nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := *c.baseURL
	u.Path = u.Path + path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return model.NetworkError(fmt.Errorf("GET %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NetworkError(fmt.Errorf("failed to read %s response: %w", path, err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.AuthError(fmt.Errorf("GET %s: %s", path, resp.Status))
	case resp.StatusCode != http.StatusOK:
		return model.NetworkError(fmt.Errorf("GET %s: %s: %s", path, resp.Status, truncateBody(body)))
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return model.NetworkError(fmt.Errorf("failed to decode %s response: %w", path, err))
	}
	return nil
}

func recordParams(q model.RecordQuery) url.Values {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	setString(params, "subject_id", q.SubjectID)
	setString(params, "category", q.Category)
	setTime(params, "start", q.Start)
	setTime(params, "end", q.End)
	return params
}

func setString(params url.Values, key string, v *string) {
	if v != nil && *v != "" {
		params.Set(key, *v)
	}
}

func setTime(params url.Values, key string, t *time.Time) {
	if t != nil {
		params.Set(key, t.Format(time.RFC3339Nano))
	}
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
