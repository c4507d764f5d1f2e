package throttle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/volleyer/request"
	"github.com/adamwoolhether/volleyer/transport"
)

type staticRequest struct{}

func (staticRequest) Method() request.Method     { return request.GET }
func (staticRequest) URL() string                { return "http://test/throttled" }
func (staticRequest) Headers() map[string]string { return nil }
func (staticRequest) BodyContentType() string    { return "" }
func (staticRequest) Body() []byte               { return nil }

func okTransport(delay time.Duration, calls *atomic.Int32) transport.Transport {
	return transport.Func(func(ctx context.Context, _ request.Request, _ map[string]string) (*request.NetworkResponse, error) {
		if delay > 0 {
			time.Sleep(delay)
		}
		calls.Add(1)
		return &request.NetworkResponse{StatusCode: http.StatusOK}, nil
	})
}

func TestNew_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		rps    int
		burst  int
		expErr error
	}{
		{name: "Invalid RPS (zero)", rps: 0, burst: 10, expErr: ErrMustNotBeZero},
		{name: "Invalid RPS (negative)", rps: -5, burst: 10, expErr: ErrMustNotBeZero},
		{name: "Invalid Burst (zero)", rps: 10, burst: 0, expErr: ErrMustNotBeZero},
		{name: "Invalid Burst (negative)", rps: 10, burst: -5, expErr: ErrMustNotBeZero},
		{name: "Valid input", rps: 10, burst: 20},
	}

	var calls atomic.Int32
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := New(tc.rps, tc.burst, func() *slog.Logger { return nil }, okTransport(0, &calls))

			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("exp nil err, got: %v", err)
			}
			if tr == nil {
				t.Error("exp non-nil Transport")
			}
		})
	}

	if _, err := New(1, 1, nil, nil); err == nil {
		t.Error("exp error for nil next transport")
	}
}

func TestThrottle_Behavior(t *testing.T) {
	testCases := []struct {
		name          string
		rps           int
		burst         int
		numRequests   int
		reqTimeout    time.Duration
		preCancel     bool
		expectReqErrs int
		expectErr     error
		minDuration   time.Duration
		maxDuration   time.Duration
	}{
		{
			name:        "High Limits - Concurrent Load",
			rps:         10000,
			burst:       100,
			numRequests: 50,
			maxDuration: 200 * time.Millisecond,
		},
		{
			name:          "Low Limit - Exceed Burst & Timeout Waiting",
			rps:           5,
			burst:         2,
			numRequests:   5, // 2 use burst, the rest cannot get a token within 50ms
			reqTimeout:    50 * time.Millisecond,
			expectReqErrs: 3,
			expectErr:     ErrWaitingFailed,
		},
		{
			name:        "Low Limit - Exceed Burst - Succeed Waiting",
			rps:         10,
			burst:       5,
			numRequests: 8,
			reqTimeout:  500 * time.Millisecond,
			// (8-5 calls) / 10 RPS = 0.3 seconds
			minDuration: 300 * time.Millisecond,
		},
		{
			name:          "Pre-Cancelled Context Fails Early",
			rps:           20,
			burst:         10,
			numRequests:   1,
			preCancel:     true,
			expectReqErrs: 1,
			expectErr:     ErrContextEnded,
			maxDuration:   50 * time.Millisecond,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			tr, err := New(tc.rps, tc.burst, func() *slog.Logger { return nil }, okTransport(time.Millisecond, &calls))
			if err != nil {
				t.Fatal(err)
			}

			var wg sync.WaitGroup
			errs := make([]error, tc.numRequests)
			start := time.Now()

			for i := range tc.numRequests {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()

					var (
						ctx    context.Context
						cancel context.CancelFunc
					)
					if tc.reqTimeout > 0 {
						ctx, cancel = context.WithTimeout(t.Context(), tc.reqTimeout)
					} else {
						ctx, cancel = context.WithCancel(t.Context())
					}
					if tc.preCancel {
						cancel()
					}
					defer cancel()

					_, errs[idx] = tr.Execute(ctx, staticRequest{}, nil)
				}(i)
			}

			wg.Wait()
			duration := time.Since(start)

			failed := 0
			for i, err := range errs {
				if err == nil {
					continue
				}
				failed++
				t.Logf("Request %d failed with: %v", i, err)
				if tc.expectErr != nil && !errors.Is(err, tc.expectErr) {
					t.Errorf("exp %v, got: %v", tc.expectErr, err)
				}
			}

			if failed != tc.expectReqErrs {
				t.Errorf("expected %d failed requests; got %d", tc.expectReqErrs, failed)
			}
			if got := int(calls.Load()); got != tc.numRequests-failed {
				t.Errorf("unexpected number of calls reached next; exp %d, got %d", tc.numRequests-failed, got)
			}
			if tc.minDuration > 0 && duration < tc.minDuration {
				t.Errorf("execution should be slowed down by throttle (>= %v), but took %v", tc.minDuration, duration)
			}
			if tc.maxDuration > 0 && duration > tc.maxDuration {
				t.Errorf("should be fast (< %v); but took %v", tc.maxDuration, duration)
			}
		})
	}
}

func TestThrottle_LogsExhaustion(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var calls atomic.Int32
	tr, err := New(100, 1, func() *slog.Logger { return logger }, okTransport(0, &calls))
	if err != nil {
		t.Fatal(err)
	}

	for range 2 {
		if _, err := tr.Execute(t.Context(), staticRequest{}, nil); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	if !strings.Contains(buf.String(), "throttle tokens exhausted") {
		t.Errorf("expected exhaustion log, got:\n%s", buf.String())
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
