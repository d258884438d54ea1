package auth0

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenFetcher exchanges the client credential pair for a management API token.
type TokenFetcher struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewTokenFetcher builds a fetcher posting to {baseURL}/oauth/token.
// httpClient may be nil to use http.DefaultClient.
func NewTokenFetcher(baseURL, audience, clientID, clientSecret string, httpClient *http.Client, logger *zap.SugaredLogger) *TokenFetcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TokenFetcher{
		cfg: clientcredentials.Config{
			ClientID:       clientID,
			ClientSecret:   clientSecret,
			TokenURL:       baseURL + "/oauth/token",
			EndpointParams: url.Values{"audience": {audience}},
			AuthStyle:      oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// Fetch performs the client-credentials grant. Any failure is returned as is;
// the caller treats it as fatal.
func (f *TokenFetcher) Fetch(ctx context.Context) (*Token, error) {
	if f.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	tok, err := f.cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	t := &Token{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry}

	if claims, err := t.Claims(); err == nil {
		f.logger.Debugw("token issued",
			"token_type", t.TokenType,
			"audience", []string(claims.Audience),
			"expires_at", claims.ExpiresAt,
		)
	} else {
		f.logger.Debugw("token issued", "token_type", t.TokenType, "expires_at", t.Expiry)
	}
	return t, nil
}
