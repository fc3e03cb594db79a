package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

const recognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"

// The short-audio REST API accepts only Opus in Ogg and PCM WAV.
var requestContentTypes = map[string]string{
	"audio/ogg":   "audio/ogg; codecs=opus",
	"audio/opus":  "audio/ogg; codecs=opus",
	"audio/wav":   "audio/wav; codecs=audio/pcm; samplerate=16000",
	"audio/x-wav": "audio/wav; codecs=audio/pcm; samplerate=16000",
	"audio/wave":  "audio/wav; codecs=audio/pcm; samplerate=16000",
}

// SpeechClient transcribes short voice notes with the Speech service REST API.
type SpeechClient struct {
	key        string
	endpoint   string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSpeechClient(key, region, language string, httpClient *http.Client, logger *slog.Logger) *SpeechClient {
	return NewSpeechClientWithURL(key, fmt.Sprintf("https://%s.stt.speech.microsoft.com", region), language, httpClient, logger)
}

func NewSpeechClientWithURL(key, endpoint, language string, httpClient *http.Client, logger *slog.Logger) *SpeechClient {
	if language == "" {
		language = "en-US"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SpeechClient{
		key:        key,
		endpoint:   strings.TrimRight(endpoint, "/"),
		language:   language,
		httpClient: httpClient,
		logger:     logger,
	}
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// RequestContentType maps a media type to the Content-Type the service
// expects. Formats the service cannot decode report false.
func RequestContentType(contentType string) (string, bool) {
	if contentType == "" {
		contentType = "audio/ogg"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	ct, ok := requestContentTypes[mediaType]
	return ct, ok
}

func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", &domain.TranscriptionError{Reason: "empty audio"}
	}
	requestType, ok := RequestContentType(contentType)
	if !ok {
		return "", &domain.TranscriptionError{Reason: "unsupported audio format " + contentType}
	}

	endpoint := c.endpoint + recognitionPath + "?" + url.Values{"language": {c.language}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", &domain.TranscriptionError{Reason: "creating request", Err: err}
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", requestType)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("sending audio to speech service", "bytes", len(audio), "language", c.language)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.TranscriptionError{Reason: "sending request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.TranscriptionError{Reason: "reading response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > 500 {
			body = body[:500]
		}
		return "", &domain.TranscriptionError{Reason: fmt.Sprintf("speech service returned %d: %s", resp.StatusCode, string(body))}
	}

	var result recognitionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &domain.TranscriptionError{Reason: "decoding response", Err: err}
	}

	if result.RecognitionStatus != "Success" {
		return "", &domain.TranscriptionError{Reason: "recognition status " + result.RecognitionStatus}
	}

	text := strings.TrimSpace(result.DisplayText)
	if text == "" {
		return "", &domain.TranscriptionError{Reason: "empty transcription"}
	}
	return text, nil
}
