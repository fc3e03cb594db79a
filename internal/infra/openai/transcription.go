package openai

import (
	"bytes"
	"context"
	"mime"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

// The service picks the decoder from the upload's file extension.
var uploadNames = map[string]string{
	"audio/ogg":   "audio.ogg",
	"audio/opus":  "audio.ogg",
	"audio/mpeg":  "audio.mp3",
	"audio/mp3":   "audio.mp3",
	"audio/mp4":   "audio.m4a",
	"audio/x-m4a": "audio.m4a",
	"audio/wav":   "audio.wav",
	"audio/x-wav": "audio.wav",
	"audio/wave":  "audio.wav",
	"audio/webm":  "audio.webm",
	"audio/flac":  "audio.flac",
}

type TranscriptionClient struct {
	client   openai.Client
	model    string
	language string
}

func NewTranscriptionClient(client openai.Client, model, language string) *TranscriptionClient {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &TranscriptionClient{
		client:   client,
		model:    model,
		language: language,
	}
}

// UploadName returns the file name and media type used to upload audio of
// the given content type. Unknown or empty types are sent as Ogg.
func UploadName(contentType string) (string, string) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if name, ok := uploadNames[mediaType]; ok {
			return name, mediaType
		}
	}
	return "audio.ogg", "audio/ogg"
}

func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", &domain.TranscriptionError{Reason: "empty audio"}
	}

	name, mediaType := UploadName(contentType)
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), name, mediaType),
		Model: openai.AudioModel(c.model),
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	result, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", &domain.TranscriptionError{Reason: "transcription request failed", Err: err}
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", &domain.TranscriptionError{Reason: "empty transcription"}
	}
	return text, nil
}
