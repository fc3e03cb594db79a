package application

import (
	"context"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

// FieldExtractor pulls the three customer fields out of free text.
// It returns either all three fields or a *domain.ExtractionError.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) (domain.CustomerFields, error)
}
