package application

import (
	"context"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// RecordStore is an authenticated view of the ERP OData surface.
type RecordStore interface {
	FetchAll(ctx context.Context, q domain.EntityQuery) ([]domain.Record, error)
	CreateRecord(ctx context.Context, entity string, payload map[string]any) (domain.Record, error)
}

// StoreFactory binds a bearer token to a RecordStore.
type StoreFactory func(token string) RecordStore
