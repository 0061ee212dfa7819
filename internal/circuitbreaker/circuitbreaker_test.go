package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Minute

	cb := New[int](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected underlying error, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Error("fn must not run while breaker is open")
	}
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Errorf("expected CIRCUIT_OPEN, got %v", err)
	}
}

func TestCircuitBreaker_PassesResults(t *testing.T) {
	cb := New[string](DefaultConfig("ok"))

	got, err := cb.Execute(func() (string, error) { return "fine", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fine" {
		t.Errorf("expected fine, got %q", got)
	}
	if cb.Name() != "ok" {
		t.Errorf("expected name ok, got %q", cb.Name())
	}
}

func TestCircuitBreaker_IgnoresErrorsMarkedSuccessful(t *testing.T) {
	notFound := errors.New("not found")

	cfg := DefaultConfig("filtered")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, notFound)
	}
	cb := New[int](cfg)

	for i := 0; i < 3; i++ {
		cb.Execute(func() (int, error) { return 0, notFound })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("client errors must not trip the breaker, state %s", cb.State())
	}
}
