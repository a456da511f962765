package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// TokenProvider yields a bearer access token for the Calendar API.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed token.
type StaticTokenProvider string

// AccessToken implements TokenProvider.
func (p StaticTokenProvider) AccessToken(context.Context) (string, error) {
	token := strings.TrimSpace(string(p))
	if token == "" {
		return "", errors.New("access token is empty")
	}
	return token, nil
}

// FileTokenProvider serves the token saved for one account and refreshes
// it through the OAuth client when it expires. Refreshed tokens are saved
// back to the store.
type FileTokenProvider struct {
	Store   *TokenStore
	Account string
	Client  OAuthClient

	mu sync.Mutex
	ts oauth2.TokenSource
}

// AccessToken implements TokenProvider.
func (p *FileTokenProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ts == nil {
		saved, err := p.Store.Load(p.Account)
		if err != nil {
			return "", err
		}
		if saved.Valid() || saved.RefreshToken == "" {
			if !saved.Valid() {
				return "", fmt.Errorf("saved token for account %q expired and cannot be refreshed", p.Account)
			}
			p.ts = oauth2.StaticTokenSource(saved)
		} else {
			conf, err := p.Client.config()
			if err != nil {
				return "", fmt.Errorf("saved token expired: %w", err)
			}
			p.ts = oauth2.ReuseTokenSource(saved, conf.TokenSource(context.WithoutCancel(ctx), saved))
		}
	}

	t, err := p.ts.Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh Google token: %w", err)
	}
	if err := p.Store.Save(p.Account, t); err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// DefaultCredentialsProvider uses Application Default Credentials with the
// calendar scope.
type DefaultCredentialsProvider struct {
	once sync.Once
	ts   oauth2.TokenSource
	err  error
}

// AccessToken implements TokenProvider.
func (p *DefaultCredentialsProvider) AccessToken(ctx context.Context) (string, error) {
	p.once.Do(func() {
		creds, err := googleoauth.FindDefaultCredentials(context.WithoutCancel(ctx), DefaultOAuthScopes...)
		if err != nil {
			p.err = fmt.Errorf("failed to find application default credentials: %w", err)
			return
		}
		p.ts = creds.TokenSource
	})
	if p.err != nil {
		return "", p.err
	}
	t, err := p.ts.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain token from application default credentials: %w", err)
	}
	return t.AccessToken, nil
}

// ProviderOptions selects a TokenProvider.
type ProviderOptions struct {
	// Token, when set, is used as is.
	Token string

	// UseADC selects Application Default Credentials.
	UseADC bool

	Account string
	Store   *TokenStore
	Client  OAuthClient
}

// NewTokenProvider picks the provider for opts: an explicit token first,
// then ADC when requested, otherwise the saved account token.
func NewTokenProvider(opts ProviderOptions) (TokenProvider, error) {
	switch {
	case strings.TrimSpace(opts.Token) != "":
		return StaticTokenProvider(opts.Token), nil
	case opts.UseADC:
		return &DefaultCredentialsProvider{}, nil
	}

	account := opts.Account
	if account == "" {
		account = DefaultAccount
	}
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	store := opts.Store
	if store == nil {
		var err error
		if store, err = DefaultTokenStore(); err != nil {
			return nil, err
		}
	}
	return &FileTokenProvider{Store: store, Account: account, Client: opts.Client}, nil
}
