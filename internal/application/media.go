package application

import "context"

// MediaFetcher downloads the audio attached to an inbound message.
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaURL string) ([]byte, error)
}
