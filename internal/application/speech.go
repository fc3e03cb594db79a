package application

import (
	"context"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

// SpeechToText turns a voice note into text. contentType is the media type
// reported for the audio; empty means audio/ogg. Failures are
// *domain.TranscriptionError.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// NoopSTT is used when no speech backend is configured.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", &domain.TranscriptionError{Reason: "speech-to-text not configured: set speech.backend"}
}
