package d365

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

const (
	DefaultAuthorityHost = "https://login.microsoftonline.com"

	// cached tokens closer than this to expiry are refreshed
	expirySkew = 5 * time.Minute
)

// TokenProvider acquires client-credentials bearer tokens for the ERP and
// keeps them in an injected cache.
type TokenProvider struct {
	cfg        clientcredentials.Config
	cacheKey   string
	cache      TokenCache
	httpClient *http.Client
	logger     *slog.Logger

	mu sync.Mutex
}

func NewTokenProvider(creds domain.Credentials, cache TokenCache, httpClient *http.Client, logger *slog.Logger) *TokenProvider {
	return NewTokenProviderWithURL(creds, DefaultAuthorityHost, cache, httpClient, logger)
}

func NewTokenProviderWithURL(creds domain.Credentials, authorityHost string, cache TokenCache, httpClient *http.Client, logger *slog.Logger) *TokenProvider {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	scope := Scope(creds.BaseURL)
	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(authorityHost, "/"), creds.TenantID)

	return &TokenProvider{
		cfg: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{scope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		cacheKey:   creds.TenantID + "|" + creds.ClientID + "|" + scope,
		cache:      cache,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Scope returns the client-credentials scope for an environment URL.
func Scope(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/.default"
}

// AccessToken returns a cached token when it is still valid, otherwise it
// requests a new one. Failures are *domain.AuthError and are not retried.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := p.cached(); ok {
		return tok.AccessToken, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok, ok := p.cached(); ok {
		return tok.AccessToken, nil
	}

	p.logger.Info("no cached token, acquiring new token", "token_url", p.cfg.TokenURL)

	tok, err := p.cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient))
	if err != nil {
		authErr := toAuthError(err)
		p.logger.Error("authentication failed", "code", authErr.Code, "description", authErr.Description)
		return "", authErr
	}

	p.cache.Put(p.cacheKey, tok)
	p.logger.Info("access token acquired", "expires_at", tok.Expiry)

	return tok.AccessToken, nil
}

func (p *TokenProvider) cached() (*oauth2.Token, bool) {
	tok, ok := p.cache.Get(p.cacheKey)
	if !ok || tok == nil || tok.AccessToken == "" {
		return nil, false
	}
	if !tok.Expiry.IsZero() && !time.Now().Add(expirySkew).Before(tok.Expiry) {
		return nil, false
	}
	return tok, true
}

func toAuthError(err error) *domain.AuthError {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &domain.AuthError{Code: "token_request_failed", Description: err.Error()}
	}

	code := re.ErrorCode
	if code == "" {
		code = "unknown"
		if re.Response != nil {
			code = fmt.Sprintf("http_%d", re.Response.StatusCode)
		}
	}
	desc := re.ErrorDescription
	if desc == "" {
		desc = "No description provided."
	}
	return &domain.AuthError{Code: code, Description: desc}
}
