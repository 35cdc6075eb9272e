package assistant

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		cb.Failure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %v before threshold, want closed", cb.State())
	}

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v after threshold, want open", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow() = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	cb.Failure()
	cb.Failure()
	cb.Success()
	cb.Failure()
	cb.Failure()

	if cb.State() != CircuitClosed {
		t.Errorf("state = %v, want closed (success should reset the streak)", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() after timeout = %v, want probe allowed", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}

	cb.Success()
	if cb.State() != CircuitHalfOpen {
		t.Fatal("one probe success should not close yet")
	}
	cb.Success()
	if cb.State() != CircuitClosed {
		t.Errorf("state = %v after enough probe successes, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		Timeout:          5 * time.Millisecond,
	})

	cb.Failure()
	time.Sleep(10 * time.Millisecond)
	_ = cb.Allow()
	if cb.State() != CircuitHalfOpen {
		t.Fatal("expected half-open")
	}

	cb.Failure()
	if cb.State() != CircuitOpen {
		t.Errorf("state = %v after probe failure, want open", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	cb.Failure()
	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Errorf("state = %v after reset, want closed", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("Allow() after reset = %v", err)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	def := DefaultCircuitBreakerConfig()
	if cb.failureThreshold != def.FailureThreshold ||
		cb.successThreshold != def.SuccessThreshold ||
		cb.timeout != def.Timeout {
		t.Error("zero config should take defaults")
	}
}
