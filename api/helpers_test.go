package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/depot"
)

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Fatal("nil must map to nil")
	}

	boom := errors.New("boom")
	if got := mapError(boom); got != boom {
		t.Fatalf("unmapped errors must pass through, got %v", got)
	}

	for _, err := range []error{
		fmt.Errorf("%w: email", depot.ErrValidation),
		fmt.Errorf("user x: %w", depot.ErrNotFound),
		depot.ErrForbidden,
	} {
		got := mapError(err)
		if got == nil || errors.Is(got, err) {
			t.Errorf("expected %v to map to an HTTP error, got %v", err, got)
		}
	}
}
