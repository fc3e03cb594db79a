package d365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra"
)

const maxErrorBody = 500

// Client talks to the F&O OData surface under {baseURL}/data.
// A Client without a token is a template; use WithToken before calling it.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      infra.RetryConfig
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: 60 * time.Second}, infra.DefaultRetryConfig(), logger)
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client, retry infra.RetryConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
	}
}

// WithToken returns a copy of the client that sends the given bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type page struct {
	Value    []domain.Record `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// FetchAll retrieves every record of an entity, following @odata.nextLink.
// Only the first request carries $select and cross-company; continuation
// links are requested verbatim.
func (c *Client) FetchAll(ctx context.Context, q domain.EntityQuery) ([]domain.Record, error) {
	next := c.entityURL(q.Entity)
	if params := queryParams(q); len(params) > 0 {
		next += "?" + params.Encode()
	}

	records := make([]domain.Record, 0)
	for pageNum := 1; next != ""; pageNum++ {
		c.logger.Debug("fetching page", "entity", q.Entity, "page", pageNum)

		body, _, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching %s page %d: %w", q.Entity, pageNum, err)
		}

		var p page
		if err := decode(body, &p); err != nil {
			return nil, fmt.Errorf("decoding %s page %d: %w", q.Entity, pageNum, err)
		}

		records = append(records, p.Value...)
		c.logger.Info("page fetched", "entity", q.Entity, "page", pageNum, "records", len(p.Value), "total", len(records))

		if q.MaxRecords > 0 && len(records) >= q.MaxRecords {
			records = records[:q.MaxRecords]
			c.logger.Info("reached max records limit", "max_records", q.MaxRecords)
			break
		}

		next = p.NextLink
	}

	return records, nil
}

// CreateRecord posts payload to the entity set and returns the record the
// server created, which may differ from payload.
func (c *Client) CreateRecord(ctx context.Context, entity string, payload map[string]any) (domain.Record, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", entity, err)
	}

	body, status, err := c.do(ctx, http.MethodPost, c.entityURL(entity), bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("creating %s record: %w", entity, err)
	}

	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return domain.Record{}, nil
	}

	var rec domain.Record
	if err := decode(body, &rec); err != nil {
		return nil, fmt.Errorf("decoding created %s record: %w", entity, err)
	}
	return rec, nil
}

func (c *Client) entityURL(entity string) string {
	return c.baseURL + "/data/" + entity
}

func queryParams(q domain.EntityQuery) url.Values {
	params := url.Values{}
	if len(q.Select) > 0 {
		params.Set("$select", strings.Join(q.Select, ","))
	}
	if q.CrossCompany {
		params.Set("cross-company", "true")
	}
	return params
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) ([]byte, int, error) {
	var (
		respBody []byte
		status   int
	)

	cfg := c.retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("retrying ERP request",
			"method", method,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", err,
		)
	}

	err := infra.WithRetry(ctx, cfg, func(attempt int) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("OData-MaxVersion", "4.0")
		req.Header.Set("OData-Version", "4.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return infra.Retryable(&domain.TransportError{Attempts: attempt, Err: err})
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return infra.Retryable(&domain.TransportError{Attempts: attempt, Err: fmt.Errorf("reading response: %w", err)})
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			respBody, status = data, resp.StatusCode
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			c.logger.Error("ERP rejected token", "status", resp.StatusCode)
			return &domain.AuthError{Code: "unauthorized", Description: "HTTP 401: token may be expired or invalid"}
		case infra.IsRetryableHTTPStatus(resp.StatusCode):
			return infra.Retryable(&domain.RequestError{Status: resp.StatusCode, Body: truncate(data)})
		default:
			c.logger.Error("ERP request failed", "status", resp.StatusCode, "body", truncate(data))
			return &domain.RequestError{Status: resp.StatusCode, Body: truncate(data)}
		}
	})

	return respBody, status, err
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
