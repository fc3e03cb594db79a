package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/extraction"
)

// Extractor asks Claude for the customer fields.
type Extractor struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewExtractor(apiKey, model string, httpClient *http.Client) *Extractor {
	return NewExtractorWithURL(apiKey, model, "https://api.anthropic.com/v1", httpClient)
}

func NewExtractorWithURL(apiKey, model, baseURL string, httpClient *http.Client) *Extractor {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Extractor{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      model,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Extractor) Extract(ctx context.Context, text string) (domain.CustomerFields, error) {
	reqBody := request{
		Model:       c.model,
		MaxTokens:   256,
		Temperature: 0,
		System:      extraction.Instruction,
		Messages: []message{
			{Role: "user", Content: text},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("claude API error %d: %s", resp.StatusCode, string(respBody)))
	}

	var result response
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("decoding response: %w", err))
	}

	if len(result.Content) == 0 {
		return domain.CustomerFields{}, extraction.Unavailable(errors.New("empty response from claude"))
	}

	return extraction.ParseReply(result.Content[0].Text)
}
