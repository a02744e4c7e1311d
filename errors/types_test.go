package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownWidget, "widget Gauge is not registered")

	if err.Code != ErrCodeUnknownWidget {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownWidget)
	}
	if err.Underlying != nil {
		t.Error("Underlying should be nil for New error")
	}
	if got := err.Error(); got != "[UNKNOWN_WIDGET] widget Gauge is not registered" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	underlying := stderrors.New("handle refused")
	err := Wrap(underlying, ErrCodeNativeCreate, "create QDialog")

	if !stderrors.Is(err, underlying) {
		t.Error("Underlying should be reachable through errors.Is")
	}
	if !strings.Contains(err.Error(), "handle refused") {
		t.Error("Error string should include underlying error")
	}
	if Wrap(nil, ErrCodeInternal, "test") != nil {
		t.Error("Wrap of nil should return nil")
	}
}

func TestWithContextSorted(t *testing.T) {
	err := New(ErrCodeInvalidEnum, "bad modality").
		WithContext("value", "sometimes_modal").
		WithContext("attribute", "modality")

	want := "[INVALID_ENUM] bad modality {attribute: modality, value: sometimes_modal}"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(ErrCodeInvalidEnum, "bad modality")
	outer := Wrap(inner, ErrCodeNativeCall, "set_modality")
	wrapped := fmt.Errorf("dispatch: %w", outer)

	if !IsCode(wrapped, ErrCodeNativeCall) {
		t.Error("outer code should match")
	}
	if !IsCode(wrapped, ErrCodeInvalidEnum) {
		t.Error("inner code should match")
	}
	if IsCode(wrapped, ErrCodeNoReceiver) {
		t.Error("unrelated code should not match")
	}
	if GetCode(wrapped) != ErrCodeNativeCall {
		t.Errorf("GetCode = %v", GetCode(wrapped))
	}
	if GetCode(stderrors.New("plain")) != ErrCodeInternal {
		t.Error("plain errors report INTERNAL")
	}
}

func TestIsSentinel(t *testing.T) {
	sentinel := &Error{Code: ErrCodeNoReceiver}
	err := New(ErrCodeNoReceiver, "set_value dropped")

	if !stderrors.Is(err, sentinel) {
		t.Error("errors with the same code should match a message-less sentinel")
	}
	if stderrors.Is(New(ErrCodePipeClosed, "closed"), sentinel) {
		t.Error("different codes should not match")
	}
}
