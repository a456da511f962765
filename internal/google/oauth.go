package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// DefaultAccount is the account used when none is named.
const DefaultAccount = "default"

// DefaultRedirectURL is where Google sends the browser after consent. The
// page does not need to load; the code is read from its address bar.
const DefaultRedirectURL = "http://127.0.0.1:8085/callback"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrNoToken is returned when no token was saved for an account.
var ErrNoToken = errors.New("no saved Google token")

func validateAccountName(account string) error {
	if account == "" {
		return errors.New("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// OAuthClient describes the OAuth client used by the login flow.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c OAuthClient) config() (*oauth2.Config, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, errors.New("google OAuth client id and secret are required")
	}
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// LoginFlow is one authorization-code exchange with PKCE.
type LoginFlow struct {
	conf     *oauth2.Config
	verifier string
	state    string
}

// NewLoginFlow starts a login. state is echoed back by Google.
func NewLoginFlow(client OAuthClient, state string) (*LoginFlow, error) {
	conf, err := client.config()
	if err != nil {
		return nil, err
	}
	return &LoginFlow{conf: conf, verifier: oauth2.GenerateVerifier(), state: state}, nil
}

// AuthURL is the consent page the user opens in a browser.
func (f *LoginFlow) AuthURL() string {
	return f.conf.AuthCodeURL(f.state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(f.verifier),
	)
}

// Exchange trades the authorization code for a token.
func (f *LoginFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	t, err := f.conf.Exchange(ctx, code, oauth2.VerifierOption(f.verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return t, nil
}

// TokenStore persists tokens as JSON files, one per account.
type TokenStore struct {
	Dir string
}

// DefaultTokenStore stores tokens in <user cache dir>/planner.
func DefaultTokenStore() (*TokenStore, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(dir, "planner")}, nil
}

func (s *TokenStore) path(account string) string {
	return filepath.Join(s.Dir, "google-"+account+".token")
}

// Save writes the token for account with owner-only permissions.
func (s *TokenStore) Save(account string, t *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load reads the token saved for account. It returns ErrNoToken when
// there is none.
func (s *TokenStore) Load(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %q, run 'planner auth login --account %s'", ErrNoToken, account, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var t oauth2.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid token file for account %q: %w", account, err)
	}
	return &t, nil
}

// Has reports whether a token was saved for account.
func (s *TokenStore) Has(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(s.path(account))
	return err == nil
}

// Delete removes the saved token for account. Missing files are not an error.
func (s *TokenStore) Delete(account string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.Remove(s.path(account)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
