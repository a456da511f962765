package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestProcess(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		failOn     map[string]bool
		wantOK     int
		wantFailed []string
	}{
		{name: "all succeed", ids: []string{"a", "b", "c"}, wantOK: 3},
		{name: "one fails", ids: []string{"a", "b", "c"}, failOn: map[string]bool{"b": true}, wantOK: 2, wantFailed: []string{"b"}},
		{name: "all fail", ids: []string{"a", "b"}, failOn: map[string]bool{"a": true, "b": true}, wantFailed: []string{"a", "b"}},
		{name: "empty", ids: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Process(context.Background(), tt.ids, Options{Concurrency: 2}, func(ctx context.Context, id string) (string, error) {
				if tt.failOn[id] {
					return "", fmt.Errorf("delete %s failed", id)
				}
				return "deleted " + id, nil
			})

			require.Len(t, results, len(tt.ids))
			for i, id := range tt.ids {
				assert.Equal(t, id, results[i].ID, "results keep input order")
			}

			ok, failed := Counts(results)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, len(tt.wantFailed), failed)
			assert.Equal(t, tt.wantFailed, FailedIDs(results))
		})
	}
}

func TestProcess_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	Process(context.Background(), ids, Options{Concurrency: 3}, func(ctx context.Context, id string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return "", nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Process(ctx, []string{"a", "b"}, Options{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}, func(ctx context.Context, id string) (string, error) {
		calls.Add(1)
		return "", nil
	})

	assert.Equal(t, int32(0), calls.Load())
	for _, r := range results {
		assert.False(t, r.Succeeded())
		assert.Contains(t, r.Error, "not attempted")
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestProcess_Limiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	results := Process(context.Background(), []string{"a", "b", "c"}, Options{Limiter: limiter}, func(ctx context.Context, id string) (string, error) {
		return id, nil
	})

	ok, failed := Counts(results)
	assert.Equal(t, 3, ok)
	assert.Equal(t, 0, failed)
}
