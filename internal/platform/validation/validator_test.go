package validation

import (
	"strings"
	"testing"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&loginRequest{Email: "a@example.com", Password: "longenough"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	err := Struct(&loginRequest{Email: "nope", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Fields))
	}
	if err.Fields[0].Field != "email" || err.Fields[0].Tag != "email" {
		t.Fatalf("unexpected first error: %+v", err.Fields[0])
	}
	if err.Fields[1].Message != "password must be at least 8 characters" {
		t.Fatalf("unexpected message: %q", err.Fields[1].Message)
	}
	if !strings.Contains(err.Error(), "email must be a valid email address") {
		t.Fatalf("expected combined message, got %q", err.Error())
	}
	if _, ok := err.Details()["fields"]; !ok {
		t.Fatal("expected fields in details")
	}
}

func TestStruct_Required(t *testing.T) {
	err := Struct(&loginRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if err.Fields[0].Message != "email is required" {
		t.Fatalf("unexpected message: %q", err.Fields[0].Message)
	}
}
