package extraction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

// ParseReply decodes a model reply of the form
// {"CustomerAccount": "...", "OrganizationName": "...", "CustomerGroupId": "..."}
// or {"error": "..."}. Every failure is a *domain.ExtractionError.
func ParseReply(raw string) (domain.CustomerFields, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return domain.CustomerFields{}, &domain.ExtractionError{
			Message: UnparseableMessage,
			Err:     fmt.Errorf("parsing reply JSON (%s): %w", text, err),
		}
	}

	if msg := stringValue(data["error"]); msg != "" {
		return domain.CustomerFields{}, &domain.ExtractionError{Message: msg}
	}

	fields := domain.CustomerFields{
		Account: stringValue(data[domain.FieldCustomerAccount]),
		Name:    stringValue(data[domain.FieldOrganizationName]),
		Group:   stringValue(data[domain.FieldCustomerGroupID]),
	}
	if group, ok := NormalizeNumber(fields.Group); ok {
		fields.Group = group
	}

	if missing := fields.Missing(); len(missing) > 0 {
		return domain.CustomerFields{}, domain.NewMissingFieldsError(missing)
	}
	return fields, nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Unavailable wraps a backend failure so the sender gets a safe message.
func Unavailable(err error) *domain.ExtractionError {
	return &domain.ExtractionError{Message: UnavailableMessage, Err: err}
}
