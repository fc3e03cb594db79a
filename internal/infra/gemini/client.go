package gemini

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

// Extractor asks a Gemini model for the customer fields.
type Extractor struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewExtractor(apiKey, model string, httpClient *http.Client) *Extractor {
	return NewExtractorWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta", httpClient)
}

func NewExtractorWithURL(apiKey, model, baseURL string, httpClient *http.Client) *Extractor {
	if model == "" {
		model = "gemini-2.0-flash"
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

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Extractor) Extract(ctx context.Context, text string) (domain.CustomerFields, error) {
	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: extraction.Instruction}},
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: text}},
			},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens:  256,
			Temperature:      0,
			ResponseMimeType: "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("marshaling request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if len(respBody) > 500 {
			respBody = respBody[:500]
		}
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(respBody)))
	}

	var result response
	if err = json.Unmarshal(respBody, &result); err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("decoding response: %w", err))
	}

	if result.Error != nil {
		return domain.CustomerFields{}, extraction.Unavailable(fmt.Errorf("gemini error: %s", result.Error.Message))
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return domain.CustomerFields{}, extraction.Unavailable(errors.New("empty response from gemini"))
	}

	return extraction.ParseReply(result.Candidates[0].Content.Parts[0].Text)
}
