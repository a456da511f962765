package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
)

// Defaults applied by NewClient for zero Options fields.
const (
	DefaultCalendarID   = "primary"
	DefaultTimeout      = 15 * time.Second
	DefaultListAttempts = 3
)

// Options configures a Client.
type Options struct {
	// Endpoint overrides the API base URL, e.g. to point at a test server.
	Endpoint string

	// HTTPClient is the base client the bearer transport wraps. Defaults to
	// an otelhttp-instrumented client.
	HTTPClient *http.Client

	// CalendarID selects the calendar. Defaults to "primary".
	CalendarID string

	// Timeout bounds each outbound call, including each retry attempt.
	Timeout time.Duration

	// ListAttempts is the total number of tries for a list call.
	ListAttempts uint

	// RetryInitialInterval is the first backoff delay between list retries.
	RetryInitialInterval time.Duration

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.CalendarID == "" {
		o.CalendarID = DefaultCalendarID
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ListAttempts == 0 {
		o.ListAttempts = DefaultListAttempts
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = 250 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return o
}

// Client talks to one calendar on behalf of one credential. It holds no
// per-run state and may be shared by concurrent callers using the same
// credential.
type Client struct {
	svc        *calendar.Service
	calendarID string
	opts       Options
	logger     *slog.Logger
}

// NewClient builds a Client that sends credential as a bearer token.
// The credential is not validated here; see Validator.
func NewClient(ctx context.Context, credential string, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	token := &oauth2.Token{AccessToken: credential, TokenType: "Bearer"}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: opts.CalendarID,
		opts:       opts,
		logger:     logging.WithOperation(opts.Logger, "calendar"),
	}, nil
}

// ListEvents returns the events starting in [timeMin, timeMax), with
// recurring events expanded into single occurrences, ordered by start time.
// Both bounds must be offset-qualified RFC 3339 timestamps.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax string) ([]Event, error) {
	var events []Event

	err := c.instrument(ctx, instrumentation.OperationList, "", func(ctx context.Context) error {
		var err error
		events, err = backoff.Retry(ctx, func() ([]Event, error) {
			out, err := c.listOnce(ctx, timeMin, timeMax)
			if err == nil {
				return out, nil
			}
			if !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			c.logger.Debug("retrying calendar list", logging.Err(err))
			return nil, err
		},
			backoff.WithBackOff(c.newBackOff()),
			backoff.WithMaxTries(c.opts.ListAttempts),
		)
		return classify(instrumentation.OperationList, err)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) listOnce(ctx context.Context, timeMin, timeMax string) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var out []Event
	err := c.svc.Events.List(c.calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				out = append(out, toEvent(item))
			}
			return nil
		})
	if err != nil {
		return nil, classify(instrumentation.OperationList, err)
	}
	return out, nil
}

// CreateEvent inserts a new event. The provider assigns its id.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	var created Event

	err := c.instrument(ctx, instrumentation.OperationCreate, "", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		ev, err := c.svc.Events.Insert(c.calendarID, in.toAPI()).Context(ctx).Do()
		if err != nil {
			return classify(instrumentation.OperationCreate, err)
		}
		created = toEvent(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchEvent changes only the fields set in patch.
func (c *Client) PatchEvent(ctx context.Context, eventID string, patch EventPatch) (*Event, error) {
	var updated Event

	err := c.instrument(ctx, instrumentation.OperationPatch, eventID, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		ev, err := c.svc.Events.Patch(c.calendarID, eventID, patch.toAPI()).Context(ctx).Do()
		if err != nil {
			return classify(instrumentation.OperationPatch, err)
		}
		updated = toEvent(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes an event. A 2xx answer with an empty body is success.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	return c.instrument(ctx, instrumentation.OperationDelete, eventID, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
			return classify(instrumentation.OperationDelete, err)
		}
		return nil
	})
}

// instrument wraps one logical API operation in a span, a metric and a debug log line.
func (c *Client) instrument(ctx context.Context, op, eventID string, fn func(context.Context) error) error {
	var attrs []attribute.KeyValue
	if eventID != "" {
		attrs = append(attrs, attribute.String(instrumentation.SpanAttrResourceID, eventID))
	}
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, op, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.opts.Metrics.RecordCalendarOperation(ctx, op, status, duration)

	c.logger.Debug("calendar call finished",
		logging.Service(instrumentation.ServiceCalendar),
		logging.Operation(op),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, duration),
		logging.Err(err),
	)
	return err
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryInitialInterval
	b.MaxInterval = 4 * c.opts.RetryInitialInterval
	return b
}

func retryable(err error) bool {
	switch e := err.(type) {
	case *ProviderError:
		return e.Retryable()
	case *NetworkError:
		return true
	default:
		return false
	}
}
