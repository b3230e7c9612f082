package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	base := errors.New("boom")

	status, msg := Status(fmt.Errorf("wrapped: %w", NotFound("order not found")))
	if status != http.StatusNotFound || msg != "order not found" {
		t.Fatalf("got %d %q", status, msg)
	}

	status, msg = Status(base)
	if status != http.StatusInternalServerError || msg != SystemErrorMessage {
		t.Fatalf("got %d %q", status, msg)
	}

	up := Upstream(base, "payment provider unavailable")
	if !errors.Is(up, base) {
		t.Fatal("Upstream should unwrap to the cause")
	}
	if status, _ := Status(up); status != http.StatusBadGateway {
		t.Fatalf("upstream status = %d", status)
	}
}
