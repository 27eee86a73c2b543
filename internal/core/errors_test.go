package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsThrottled(t *testing.T) {
	base := errors.New("429 too many requests")
	throttled := NewThrottledError("openai", base)

	if !IsThrottled(throttled) {
		t.Error("IsThrottled() = false for a ThrottledError")
	}
	if !IsThrottled(fmt.Errorf("classify failed: %w", throttled)) {
		t.Error("IsThrottled() = false for a wrapped ThrottledError")
	}
	if IsThrottled(base) {
		t.Error("IsThrottled() = true for a plain error")
	}
	if IsThrottled(nil) {
		t.Error("IsThrottled() = true for nil")
	}
	if !errors.Is(throttled, base) {
		t.Error("ThrottledError does not unwrap to its cause")
	}
}
