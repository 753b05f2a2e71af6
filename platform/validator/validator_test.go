package validator

import (
	"errors"
	"testing"
)

type stageRequest struct {
	Stage string `validate:"required,stage"`
}

func TestRegisterStringSet(t *testing.T) {
	v := New()
	v.RegisterStringSet("stage", func(s string) bool { return s == "new" || s == "dead" })

	if err := v.Struct(stageRequest{Stage: "dead"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := v.Struct(stageRequest{Stage: "won"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := FieldErrors(err)
	if details["Stage"] != "stage" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	if got := FieldErrors(errors.New("boom")); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
