package apperr

import (
	"errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(KindInvalidRequest, "missing field")
	if e.Error() != "[InvalidRequest] missing field" {
		t.Errorf("unexpected message: %s", e.Error())
	}

	cause := errors.New("boom")
	wrapped := Wrap(KindUpstreamOther, cause, "upstream call failed")
	if wrapped.Error() != "[UpstreamOther] upstream call failed: boom" {
		t.Errorf("unexpected wrapped message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected Unwrap to expose cause via errors.Is")
	}
}

func TestWrapNilCause(t *testing.T) {
	if err := Wrap(KindUpstreamOther, nil, "noop"); err != nil {
		t.Errorf("expected nil for nil cause, got %v", err)
	}
}

func TestIs(t *testing.T) {
	err := New(KindOverloaded, "too many sessions")
	if !Is(err, KindOverloaded) {
		t.Error("expected Is to match same kind")
	}
	if Is(err, KindUnknownModel) {
		t.Error("expected Is to reject different kind")
	}
	if Is(errors.New("plain"), KindOverloaded) {
		t.Error("expected Is to reject non-apperr errors")
	}
}

func TestRetryable(t *testing.T) {
	retryable := []Kind{KindUpstreamTimeout, KindUpstreamRateLimited}
	for _, k := range retryable {
		if !Retryable(k) {
			t.Errorf("expected %s to be retryable", k)
		}
	}
	notRetryable := []Kind{KindUpstreamAuth, KindUnknownModel, KindInvalidRequest}
	for _, k := range notRetryable {
		if Retryable(k) {
			t.Errorf("expected %s to not be retryable", k)
		}
	}
}
