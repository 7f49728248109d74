package resilience

import (
	"errors"
	"net/http"
	"testing"

	"github.com/rotisserie/eris"
)

func TestProviderError_RateLimitedFromStatus(t *testing.T) {
	pe := NewProviderError("jina", http.StatusTooManyRequests, eris.New("throttled"))
	if !pe.RateLimited {
		t.Error("expected RateLimited for 429")
	}
	if !IsRateLimited(pe) {
		t.Error("expected IsRateLimited true")
	}

	pe = NewProviderError("jina", http.StatusInternalServerError, eris.New("boom"))
	if pe.RateLimited {
		t.Error("did not expect RateLimited for 500")
	}
}

func TestProviderError_Message(t *testing.T) {
	pe := NewProviderError("perplexity", 503, eris.New("unavailable"))
	pe.Attempt = 2
	pe.MaxAttempts = 3

	want := "perplexity: attempt 2/3: unavailable"
	if pe.Error() != want {
		t.Errorf("got %q, want %q", pe.Error(), want)
	}
}

func TestRetriesFrom(t *testing.T) {
	pe := NewProviderError("jina", 500, eris.New("boom"))
	pe.Attempt = 3
	pe.MaxAttempts = 3
	if got := RetriesFrom(pe); got != 2 {
		t.Errorf("expected 2 retries, got %d", got)
	}

	// No attempt annotation — defaults to zero.
	if got := RetriesFrom(NewProviderError("jina", 500, eris.New("boom"))); got != 0 {
		t.Errorf("expected 0 retries, got %d", got)
	}

	// Non-provider error — defaults to zero.
	if got := RetriesFrom(errors.New("plain")); got != 0 {
		t.Errorf("expected 0 retries, got %d", got)
	}
}

func TestAsProviderError_Wrapped(t *testing.T) {
	inner := NewProviderError("google_places", 401, eris.New("missing key"))
	wrapped := eris.Wrap(inner, "query failed")

	pe, ok := AsProviderError(wrapped)
	if !ok {
		t.Fatal("expected ProviderError in chain")
	}
	if pe.Provider != "google_places" || pe.StatusCode != 401 {
		t.Errorf("unexpected fields: %+v", pe)
	}
	if StatusCodeFrom(wrapped) != 401 {
		t.Errorf("expected status 401, got %d", StatusCodeFrom(wrapped))
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", NewProviderError("p", 429, eris.New("x")), true},
		{"503", NewProviderError("p", 503, eris.New("x")), true},
		{"401", NewProviderError("p", 401, eris.New("x")), false},
		{"404", NewProviderError("p", 404, eris.New("x")), false},
		{"plain", errors.New("x"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}
