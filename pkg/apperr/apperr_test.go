package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestRequiredMessage(t *testing.T) {
	err := Required("email")
	if err.Error() != "email is required" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !IsInput(err) {
		t.Fatal("expected input error")
	}
	if IsUpstream(err) {
		t.Fatal("input error must not classify as upstream")
	}
}

func TestUpstreamWrapping(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := fmt.Errorf("submit: %w", Upstream("append row", cause))

	if !IsUpstream(err) {
		t.Fatal("expected upstream error through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if Upstream("noop", nil) != nil {
		t.Fatal("nil cause should produce nil error")
	}
}
