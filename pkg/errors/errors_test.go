package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "loading transactions")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("wrapped cause not reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %q", err.Code())
	}
	if got := err.Error(); got != "DEPENDENCY_ERROR: loading transactions" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeInvariant, "org mismatch in partition")
	outer := fmt.Errorf("run aborted: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error in chain")
	}
	if typed.Code() != CodeInvariant {
		t.Fatalf("unexpected code %q", typed.Code())
	}
	if !IsInvariant(outer) {
		t.Fatal("IsInvariant should see through wrapping")
	}
	if IsInvariant(stdErrors.New("plain")) {
		t.Fatal("plain errors are not invariant violations")
	}
}

func TestMetadataFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_REAL_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to internal, got %d", meta.HTTPStatus)
	}

	invariant := MetadataFor(CodeInvariant)
	if invariant.Retryable {
		t.Fatal("invariant violations are not retryable")
	}
	if !invariant.DetailsAllowed {
		t.Fatal("invariant violations must carry details for audit")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("boom"), "persisting flags")
	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("unexpected code %q", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", d.Chain)
	}
}
