package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoff_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) ErrorClass { return ErrorClassNetwork })

	if err != nil {
		t.Fatalf("retryWithBackoff: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	wantErr := errors.New("bad request")

	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		return wantErr
	}, func(error) ErrorClass { return ErrorClassClient })

	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_Exhaustion(t *testing.T) {
	calls := 0
	underlying := errors.New("still down")

	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		return underlying
	}, func(error) ErrorClass { return ErrorClassServer })

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("error = %v, want wrapped underlying error", err)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	config := RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Hour, // never elapses; cancellation must win
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 1,
	}

	done := make(chan error, 1)
	go func() {
		done <- retryWithBackoff(ctx, config, func() error {
			return errors.New("transient")
		}, func(error) ErrorClass { return ErrorClassNetwork })
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrContextCancelled) {
			t.Errorf("error = %v, want ErrContextCancelled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retryWithBackoff did not observe context cancellation")
	}
}
