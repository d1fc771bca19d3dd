package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Fixed(context.Background(), 5, time.Millisecond, func() (bool, error) {
		attempts++
		if attempts == 3 {
			return true, nil
		}
		return false, errors.New("not ready")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestFixedExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Fixed(context.Background(), 3, time.Millisecond, func() (bool, error) {
		attempts++
		return false, errors.New("still failing")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestFibonacciRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Fibonacci(context.Background(), 4, time.Millisecond, func() (bool, error) {
		attempts++
		if attempts == 2 {
			return true, nil
		}
		return false, errors.New("not ready")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
