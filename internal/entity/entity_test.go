package entity

import (
	"errors"
	"testing"
)

func TestRegisterAndValidate(t *testing.T) {
	tag := Register("UnitTestThing")

	if !Known(tag) {
		t.Fatalf("Known(%q) = false after Register", tag)
	}
	if err := ValidateTag(tag); err != nil {
		t.Fatalf("ValidateTag(%q) = %v", tag, err)
	}
	if err := ValidateTag("NeverRegistered"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("ValidateTag(unknown) = %v, want ErrUnknownType", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("UnitTestDup")
	defer func() {
		if recover() == nil {
			t.Fatal("second Register of the same tag did not panic")
		}
	}()
	Register("UnitTestDup")
}
