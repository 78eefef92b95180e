package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/budgetmap/pkg/errors"
)

var fastBackoff = Backoff{Attempts: 3, Delay: time.Millisecond}

func TestClientGet(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int // one per attempt; the last repeats
		wantCalls int32
		wantCode  errors.Code
		wantBody  string
	}{
		{"ok", []int{200}, 1, "", "budget"},
		{"retry then ok", []int{503, 502, 200}, 3, "", "budget"},
		{"rate limited then ok", []int{429, 200}, 2, "", "budget"},
		{"persistent 5xx", []int{500}, 3, errors.ErrCodeUpstream, ""},
		{"not found", []int{404}, 1, errors.ErrCodeFileNotFound, ""},
		{"forbidden", []int{403}, 1, errors.ErrCodeUpstream, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(calls.Add(1)) - 1
				status := tt.statuses[min(n, len(tt.statuses)-1)]
				if r.Header.Get("User-Agent") == "" {
					t.Error("missing User-Agent")
				}
				w.WriteHeader(status)
				if status == 200 {
					_, _ = w.Write([]byte("budget"))
				}
			}))
			defer srv.Close()

			c := NewClient(WithBackoff(fastBackoff))
			data, err := c.Get(context.Background(), srv.URL)

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.wantBody {
				t.Errorf("body = %q", data)
			}
		})
	}
}

func TestClientHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("Authorization", "Bearer t0ken"))
	data, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Bearer t0ken" {
		t.Errorf("Authorization = %q", data)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, Backoff{Attempts: 5, Delay: time.Hour}, func() error {
		calls++
		cancel()
		return &RetryableError{Err: context.DeadlineExceeded}
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryNonRetryable(t *testing.T) {
	want := errors.New(errors.ErrCodeInvalidInput, "bad")
	calls := 0
	err := Retry(context.Background(), fastBackoff, func() error {
		calls++
		return want
	})
	if err != want || calls != 1 {
		t.Errorf("err = %v calls = %d", err, calls)
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://example.org/b.json": true,
		"http://localhost/b.yaml":    true,
		"budget.json":                false,
		"-":                          false,
		"ftp://host/b.json":          false,
	}
	for source, want := range tests {
		if got := IsRemote(source); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", source, got, want)
		}
	}
}
