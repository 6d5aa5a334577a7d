package validate

import (
	"errors"
	"testing"
)

type sample struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"fullName" validate:"required"`
	Size  int64  `json:"size" validate:"lte=10"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Size: 11})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d", len(verr.Fields))
	}
	want := "email is required; fullName is required; field 'size' failed 'lte'"
	if verr.Error() != want {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{Email: "a", Name: "b", Size: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type account struct {
	Password string `json:"password" validate:"strongpassword"`
}

func TestStrongPassword(t *testing.T) {
	for _, pw := range []string{"Birch#Tree9", "Spaces are 1 symbol"} {
		if err := Struct(account{Password: pw}); err != nil {
			t.Fatalf("%q should be accepted: %v", pw, err)
		}
	}
	for _, pw := range []string{"Sh0rt!", "nouppercase1!", "NOLOWERCASE1!", "NoDigitsHere!", "NoSymbols123"} {
		if err := Struct(account{Password: pw}); err == nil {
			t.Fatalf("%q should be rejected", pw)
		}
	}
}
