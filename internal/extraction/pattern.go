package extraction

import (
	"context"
	"regexp"
	"strings"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

// Alternatives are tried in order; the first one that matches wins.
var (
	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\baccount(?:\s+(?:id|number))?\s*(?:is\s+|:\s*)?([a-z0-9][a-z0-9-]*\d[a-z0-9-]*)\b`),
		regexp.MustCompile(`(?i)\bcustomer(?:\s+id)?\s*(?:is\s+|:\s*)?([a-z]+\d[a-z0-9-]*)\b`),
		regexp.MustCompile(`(?i)\bid\s*(?:is\s+|:\s*)?([a-z]+\d[a-z0-9-]*)\b`),
	}

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:organi[sz]ation|company|customer)\s+name\b\s*(?:is\s+|:\s*)?(.+?)\s*(?:[,;]|\.(?:\s|$)|\bgroup\b|\baccount\b|$)`),
		regexp.MustCompile(`(?i)\bname\b\s*(?:is\s+|:\s*)?(.+?)\s*(?:[,;]|\.(?:\s|$)|\bgroup\b|\baccount\b|$)`),
		regexp.MustCompile(`(?i)\b(?:organi[sz]ation|company)\s*(?:is\s+|:\s*)?(.+?)\s*(?:[,;]|\.(?:\s|$)|\bgroup\b|\baccount\b|$)`),
	}

	groupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bgroup(?:\s+(?:id|number))?\s*(?:is\s+|:\s*)?(\d+|[a-z]+(?:[\s-]+[a-z]+)?)`),
		regexp.MustCompile(`(?i)\bsegment\s*(?:is\s+|:\s*)?(\d+|[a-z]+(?:[\s-]+[a-z]+)?)`),
	}

	trailingFiller = regexp.MustCompile(`(?i)\s+(?:and|with|in|customer)$`)
)

// PatternExtractor extracts fields with regular expressions. It needs no
// network access and is deterministic.
type PatternExtractor struct{}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

func (e *PatternExtractor) Extract(_ context.Context, text string) (domain.CustomerFields, error) {
	fields := domain.CustomerFields{
		Account: strings.ToUpper(firstMatch(accountPatterns, text, nil)),
		Name:    firstMatch(namePatterns, text, cleanName),
		Group:   firstMatch(groupPatterns, text, NormalizeNumber),
	}

	if missing := fields.Missing(); len(missing) > 0 {
		return domain.CustomerFields{}, domain.NewMissingFieldsError(missing)
	}
	return fields, nil
}

func firstMatch(patterns []*regexp.Regexp, text string, normalize func(string) (string, bool)) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if normalize != nil {
			var ok bool
			if value, ok = normalize(value); !ok {
				continue
			}
		}
		if value != "" {
			return value
		}
	}
	return ""
}

func cleanName(s string) (string, bool) {
	s = strings.Trim(s, " \t\"'.")
	for {
		trimmed := trailingFiller.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return s, s != ""
}
