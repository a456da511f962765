package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/teemow/planner/internal/instrumentation"
)

// CalendarScope is the OAuth scope a credential must carry.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// credentialPrefix marks Google OAuth 2.0 access tokens.
const credentialPrefix = "ya29."

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	// Endpoint overrides the tokeninfo base URL, e.g. to point at a test server.
	Endpoint string

	HTTPClient *http.Client

	// Timeout bounds each introspection attempt. Defaults to 5s.
	Timeout time.Duration

	// Attempts is the total number of tries on network or 5xx failures.
	Attempts uint

	// RetryInitialInterval is the first backoff delay between attempts.
	RetryInitialInterval time.Duration

	Metrics *instrumentation.Metrics
}

// Validator checks caller credentials against Google's tokeninfo endpoint.
type Validator struct {
	svc  *oauth2api.Service
	opts ValidatorOptions
}

// NewValidator creates a Validator.
func NewValidator(ctx context.Context, opts ValidatorOptions) (*Validator, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Attempts == 0 {
		opts.Attempts = 2
	}
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = 200 * time.Millisecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(opts.HTTPClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := oauth2api.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo service: %w", err)
	}
	return &Validator{svc: svc, opts: opts}, nil
}

// CheckCredentialShape rejects credentials that cannot be Google access
// tokens without making a network call.
func CheckCredentialShape(credential string) error {
	switch {
	case strings.TrimSpace(credential) == "":
		return &AuthError{Reason: "credential is empty"}
	case strings.ContainsAny(credential, " \t\r\n"):
		return &AuthError{Reason: "credential contains whitespace"}
	case !strings.HasPrefix(credential, credentialPrefix):
		return &AuthError{Reason: "credential is not a Google OAuth access token"}
	}
	return nil
}

// ValidateCredential returns nil when credential is a live access token
// carrying CalendarScope. Rejections are *AuthError. When the introspection
// endpoint is unreachable or failing, the *NetworkError or 5xx
// *ProviderError is returned instead so callers can tell an outage from a
// bad credential.
func (v *Validator) ValidateCredential(ctx context.Context, credential string) error {
	if err := CheckCredentialShape(credential); err != nil {
		v.opts.Metrics.RecordCredentialValidation(ctx, instrumentation.CredentialInvalid)
		return err
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceTokenInfo, instrumentation.OperationTokenInfo)
	defer span.End()

	info, err := backoff.Retry(ctx, func() (*oauth2api.Tokeninfo, error) {
		callCtx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
		defer cancel()

		info, err := v.svc.Tokeninfo().AccessToken(credential).Context(callCtx).Do()
		if err == nil {
			return info, nil
		}
		cerr := classify(instrumentation.OperationTokenInfo, err)
		if retryable(cerr) {
			return nil, cerr
		}
		return nil, backoff.Permanent(cerr)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(v.opts.RetryInitialInterval)),
		backoff.WithMaxTries(v.opts.Attempts),
	)

	if err != nil {
		err = classify(instrumentation.OperationTokenInfo, err)
		instrumentation.SetSpanError(span, err)

		var perr *ProviderError
		if errors.As(err, &perr) && !perr.Retryable() {
			v.opts.Metrics.RecordCredentialValidation(ctx, instrumentation.CredentialInvalid)
			return &AuthError{Reason: "credential rejected by token introspection", Err: err}
		}
		v.opts.Metrics.RecordCredentialValidation(ctx, instrumentation.CredentialUpstream)
		return err
	}

	if !hasScope(info.Scope, CalendarScope) {
		v.opts.Metrics.RecordCredentialValidation(ctx, instrumentation.CredentialNoScope)
		err := &AuthError{Reason: "credential lacks the " + CalendarScope + " scope"}
		instrumentation.SetSpanError(span, err)
		return err
	}

	instrumentation.SetSpanSuccess(span)
	v.opts.Metrics.RecordCredentialValidation(ctx, instrumentation.CredentialValid)
	return nil
}

// hasScope reports whether the space-separated scope list contains want exactly.
func hasScope(scopes, want string) bool {
	for _, s := range strings.Fields(scopes) {
		if s == want {
			return true
		}
	}
	return false
}
