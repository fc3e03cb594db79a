package twilio

import (
	"log/slog"
	"net/http"

	"github.com/twilio/twilio-go/client"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

const SignatureHeader = "X-Twilio-Signature"

// SignatureValidator checks that a webhook request was signed by Twilio
// with the account's auth token.
type SignatureValidator struct {
	validator client.RequestValidator
	skip      bool
	logger    *slog.Logger
}

// NewSignatureValidator returns a validator for authToken. With skip set
// every request is accepted, which is only meant for local development.
func NewSignatureValidator(authToken string, skip bool, logger *slog.Logger) *SignatureValidator {
	return &SignatureValidator{
		validator: client.NewRequestValidator(authToken),
		skip:      skip,
		logger:    logger,
	}
}

// Validate returns a *domain.ValidationError unless r carries a valid
// signature. The form must already be parsed.
func (v *SignatureValidator) Validate(r *http.Request) error {
	if v.skip {
		v.logger.Debug("signature validation skipped")
		return nil
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return &domain.ValidationError{Reason: "missing " + SignatureHeader + " header"}
	}

	url := PublicURL(r)
	v.logger.Debug("validating signature", "url", url)
	if !v.validator.Validate(url, formParams(r), signature) {
		return &domain.ValidationError{Reason: "signature does not match " + url}
	}
	return nil
}

// PublicURL rebuilds the URL the sender signed. Behind a tunnel or reverse
// proxy that is the forwarded scheme and host, not the local listener.
func PublicURL(r *http.Request) string {
	proto := r.Header.Get("X-Forwarded-Proto")
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if proto != "" && host != "" {
		return proto + "://" + host + r.URL.Path
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func formParams(r *http.Request) map[string]string {
	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
