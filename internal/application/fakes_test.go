package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/application"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMedia struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeMedia) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

type fakeSTT struct {
	text        string
	err         error
	calls       int
	contentType string
}

func (f *fakeSTT) Transcribe(_ context.Context, _ []byte, contentType string) (string, error) {
	f.calls++
	f.contentType = contentType
	return f.text, f.err
}

type fakeExtractor struct {
	fields domain.CustomerFields
	err    error
	panics bool
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (domain.CustomerFields, error) {
	if f.panics {
		panic("extractor exploded")
	}
	return f.fields, f.err
}

type fakeTokens struct {
	token string
	err   error
	calls int
}

func (f *fakeTokens) AccessToken(_ context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeStore struct {
	token    string
	records  []domain.Record
	created  domain.Record
	err      error
	queries  []domain.EntityQuery
	payloads []map[string]any
}

func (f *fakeStore) FetchAll(_ context.Context, q domain.EntityQuery) ([]domain.Record, error) {
	f.queries = append(f.queries, q)
	return f.records, f.err
}

func (f *fakeStore) CreateRecord(_ context.Context, _ string, payload map[string]any) (domain.Record, error) {
	f.payloads = append(f.payloads, payload)
	return f.created, f.err
}

func (f *fakeStore) factory() application.StoreFactory {
	return func(token string) application.RecordStore {
		f.token = token
		return f
	}
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.err
}

var errBoom = errors.New("boom")
