package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
)

func fastRetry(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestDoVal_SucceedsFirstTry(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(_ context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 || calls != 1 {
		t.Errorf("val=%d calls=%d", val, calls)
	}
}

func TestDoVal_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewProviderError("jina", 503, eris.New("unavailable"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ok" || calls != 3 {
		t.Errorf("val=%q calls=%d", val, calls)
	}
}

func TestDoVal_NonTransientNotRetried(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(_ context.Context) (int, error) {
		calls++
		return 0, NewProviderError("jina", 401, eris.New("bad key"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-transient error, got %d", calls)
	}
}

func TestDoVal_AnnotatesAttemptOnExhaustion(t *testing.T) {
	_, err := DoVal(context.Background(), fastRetry(3), func(_ context.Context) (int, error) {
		return 0, NewProviderError("jina", 429, eris.New("throttled"))
	})
	if err == nil {
		t.Fatal("expected error")
	}

	pe, ok := AsProviderError(err)
	if !ok {
		t.Fatal("expected ProviderError")
	}
	if pe.Attempt != 3 || pe.MaxAttempts != 3 {
		t.Errorf("expected attempt 3/3, got %d/%d", pe.Attempt, pe.MaxAttempts)
	}
	if RetriesFrom(err) != 2 {
		t.Errorf("expected 2 retries, got %d", RetriesFrom(err))
	}
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastRetry(5), func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewProviderError("jina", 503, eris.New("unavailable"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", calls)
	}
}

func TestDo_WrapsDoVal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(2), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err=%v calls=%d", err, calls)
	}
}
