package twilio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxMediaBytes = 16 << 20

// MediaClient downloads message attachments with the account credentials.
type MediaClient struct {
	accountSID string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewMediaClient(accountSID, authToken string, httpClient *http.Client, logger *slog.Logger) *MediaClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &MediaClient{
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *MediaClient) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	if mediaURL == "" {
		return nil, fmt.Errorf("empty media URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	c.logger.Info("downloading media", "url", mediaURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
	}

	c.logger.Info("media downloaded", "bytes", len(data), "content_type", resp.Header.Get("Content-Type"))
	return data, nil
}
