package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/agenda"
	"github.com/teemow/planner/internal/agent"
	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

type runnerFunc func(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error)

func (f runnerFunc) Run(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error) {
	return f(ctx, history, sc)
}

type listerFunc func(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error)

func (f listerFunc) ListEvents(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error) {
	return f(ctx, timeMin, timeMax)
}

func echoRunner() Runner {
	return runnerFunc(func(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error) {
		last := history[len(history)-1]
		return &agent.Result{RunID: "run-1", Answer: "echo: " + last.Content, Status: agent.StatusCompleted}, nil
	})
}

func noListers() ListerFactory {
	return func(ctx context.Context, credential string) (agenda.Lister, error) {
		return nil, errors.New("no calendar in this test")
	}
}

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		Runner:  echoRunner(),
		Listers: noListers(),
		Logger:  logging.Discard(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Listers: noListers()})
	assert.Error(t, err)

	_, err = New(Config{Runner: echoRunner()})
	assert.Error(t, err)
}

func TestChat_Success(t *testing.T) {
	var gotHistory []session.Message
	var gotSession *session.Context
	s := newTestServer(t, func(c *Config) {
		c.DefaultTimezone = "Asia/Kolkata"
		c.Runner = runnerFunc(func(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error) {
			gotHistory, gotSession = history, sc
			return &agent.Result{RunID: "run-42", Answer: "Gym is booked.", Status: agent.StatusCompleted}, nil
		})
	})

	rec := postChat(t, s, `{
		"messages": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
			{"role": "system", "content": "ignored"},
			{"role": "tool", "content": "ignored too"},
			{"role": "user", "content": "Schedule Gym tomorrow 6-7pm"}
		],
		"user_token": "ya29.token"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ChatResponse](t, rec)
	assert.Equal(t, ChatResponse{Response: "Gym is booked.", RunID: "run-42", Status: "completed"}, resp)

	assert.Equal(t, []session.Message{
		session.UserMessage("hi"),
		session.AssistantMessage("hello"),
		session.UserMessage("Schedule Gym tomorrow 6-7pm"),
	}, gotHistory)
	assert.Equal(t, "ya29.token", gotSession.Credential)
	assert.Equal(t, "Asia/Kolkata", gotSession.Timezone)
}

func TestChat_RequestTimezoneWins(t *testing.T) {
	var zone string
	s := newTestServer(t, func(c *Config) {
		c.Runner = runnerFunc(func(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error) {
			zone = sc.Timezone
			return &agent.Result{Answer: "ok"}, nil
		})
	})

	rec := postChat(t, s, `{"messages":[{"role":"user","content":"x"}],"user_token":"t","timezone":"Europe/Berlin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Europe/Berlin", zone)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		runErr     error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "malformed body",
			body:       `{"messages": [`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "malformed request body",
		},
		{
			name:       "no usable messages",
			body:       `{"messages": [{"role": "system", "content": "x"}], "user_token": "t"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "rejected credential",
			body:       `{"messages": [{"role": "user", "content": "x"}], "user_token": "bad"}`,
			runErr:     fmt.Errorf("credential check failed: %w", &calendar.AuthError{Reason: "token rejected"}),
			wantStatus: http.StatusUnauthorized,
			wantDetail: invalidTokenDetail,
		},
		{
			name:       "model unavailable",
			body:       `{"messages": [{"role": "user", "content": "x"}], "user_token": "t"}`,
			runErr:     errors.New("model call on turn 1: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(c *Config) {
				c.Runner = runnerFunc(func(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error) {
					if tt.runErr != nil {
						return nil, tt.runErr
					}
					return &agent.Result{Answer: "ok"}, nil
				})
			})

			rec := postChat(t, s, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decode[errorResponse](t, rec)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, resp.Detail)
			}
			assert.NotContains(t, resp.Detail, "connection refused")
		})
	}
}

func TestChat_BodyLimit(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.MaxBodyBytes = 64 })

	body := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", 200) + `"}],"user_token":"t"}`
	rec := postChat(t, s, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.ChatRate = 0.001
		c.ChatBurst = 2
	})

	body := `{"messages":[{"role":"user","content":"x"}],"user_token":"t"}`
	assert.Equal(t, http.StatusOK, postChat(t, s, body).Code)
	assert.Equal(t, http.StatusOK, postChat(t, s, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, postChat(t, s, body).Code)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	allowed := preflight("http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", allowed.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", allowed.Header().Get("Access-Control-Allow-Credentials"))

	denied := preflight("https://evil.example")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}

func TestUpcoming(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2026, 1, 19, 9, 0, 0, 0, loc)

	var gotCredential, gotMin string
	s := newTestServer(t, func(c *Config) {
		c.DisplayLocation = loc
		c.Clock = func() time.Time { return now }
		c.Listers = func(ctx context.Context, credential string) (agenda.Lister, error) {
			gotCredential = credential
			return listerFunc(func(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error) {
				gotMin = timeMin
				return []calendar.Event{
					{ID: "a", Summary: "Submit deadline", Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)},
					{ID: "b", Summary: "Off", AllDay: true, Start: now},
				}, nil
			}), nil
		}
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/upcoming?user_token=ya29.q", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body["upcoming"], 1)
	assert.Equal(t, map[string]any{
		"id":         "a",
		"title":      "Submit deadline",
		"start_time": "11:00 AM",
		"end_time":   "12:00 PM",
		"date_label": "Today",
		"is_urgent":  true,
	}, body["upcoming"][0])

	assert.Equal(t, "ya29.q", gotCredential)
	assert.Equal(t, "2026-01-19T00:00:00+05:30", gotMin)
}

func TestUpcoming_BearerHeader(t *testing.T) {
	var gotCredential string
	s := newTestServer(t, func(c *Config) {
		c.Listers = func(ctx context.Context, credential string) (agenda.Lister, error) {
			gotCredential = credential
			return listerFunc(func(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error) {
				return nil, nil
			}), nil
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/events/upcoming", nil)
	req.Header.Set("Authorization", "Bearer ya29.h")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ya29.h", gotCredential)
	assert.JSONEq(t, `{"upcoming": []}`, rec.Body.String())
}

func TestUpcoming_FailuresYieldEmptyList(t *testing.T) {
	failing := func(ctx context.Context, credential string) (agenda.Lister, error) {
		return listerFunc(func(ctx context.Context, timeMin, timeMax string) ([]calendar.Event, error) {
			return nil, &calendar.ProviderError{Op: "list", Status: http.StatusUnauthorized, Message: "Invalid Credentials"}
		}), nil
	}

	for name, factory := range map[string]ListerFactory{"provider error": failing, "factory error": noListers()} {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, func(c *Config) { c.Listers = factory })

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/upcoming?user_token=x", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"upcoming": []}`, rec.Body.String())
		})
	}
}

func TestUpcoming_MissingCredential(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/upcoming", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := newTestServer(t, func(c *Config) {
		c.Runner = runnerFunc(func(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error) {
			close(started)
			<-release
			return &agent.Result{Answer: "finished"}, nil
		})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	type reply struct {
		status int
		body   ChatResponse
		err    error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/chat", "application/json",
			strings.NewReader(`{"messages":[{"role":"user","content":"x"}],"user_token":"t"}`))
		if err != nil {
			replies <- reply{err: err}
			return
		}
		defer resp.Body.Close()
		var body ChatResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		replies <- reply{status: resp.StatusCode, body: body, err: err}
	}()

	<-started
	cancel()

	// Readiness flips while the run drains.
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec.Code == http.StatusServiceUnavailable
	}, 2*time.Second, 10*time.Millisecond)

	close(release)

	r := <-replies
	require.NoError(t, r.err)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "finished", r.body.Response)

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
