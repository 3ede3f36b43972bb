package errors

import (
	stderrors "errors"
	"testing"
)

func TestWrap_PreservesCodeAndChain(t *testing.T) {
	base := New("EMPTY_FILE", "file has no data rows")
	wrapped := Wrap(base, "failed to load spreadsheet")

	if Code(wrapped) != "EMPTY_FILE" {
		t.Errorf("code = %q, want EMPTY_FILE", Code(wrapped))
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error must unwrap to its cause")
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Error("wrapping nil must stay nil")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) must stay nil")
	}
}

func TestCode_UnknownError(t *testing.T) {
	if Code(stderrors.New("plain")) != "INTERNAL_ERROR" {
		t.Error("plain errors default to INTERNAL_ERROR")
	}
}

func TestError_Message(t *testing.T) {
	plain := New("X", "mensagem")
	if plain.Error() != "mensagem" {
		t.Errorf("got %q", plain.Error())
	}
	wrapped := Wrap(stderrors.New("causa"), "contexto")
	if wrapped.Error() != "contexto: causa" {
		t.Errorf("got %q", wrapped.Error())
	}
}
