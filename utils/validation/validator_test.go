package validation

import (
	"errors"
	"testing"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+919876543210", true},
		{"9876543210", true},
		{"+14155552671", true},
		{"12345", false},
		{"", false},
		{"+91 98765 43210", false},
		{"not-a-number", false},
	}

	for _, tt := range tests {
		if got := ValidatePhone(tt.phone); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestFormatValidationErrors(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
		Phone string `validate:"required,phone"`
		Name  string `validate:"required,min=2"`
	}

	v := NewValidator()
	err := v.ValidateStruct(form{Email: "no-at-sign", Phone: "abc", Name: "x"})
	if err == nil {
		t.Fatal("expected validation failures")
	}

	fields := FormatValidationErrors(err)
	if fields["email"] != "Invalid email format" {
		t.Errorf("email message = %q", fields["email"])
	}
	if fields["phone"] != "Invalid phone number" {
		t.Errorf("phone message = %q", fields["phone"])
	}
	if fields["name"] != "Name must be at least 2 characters" {
		t.Errorf("name message = %q", fields["name"])
	}
}

func TestFormatValidationErrorsNonValidatorError(t *testing.T) {
	fields := FormatValidationErrors(errors.New("unexpected end of JSON input"))
	if len(fields) != 0 {
		t.Errorf("fields = %v, want empty map for a non-validator error", fields)
	}
}

func TestValidateStructPhoneTag(t *testing.T) {
	type form struct {
		Phone string `validate:"required,phone"`
	}

	v := NewValidator()

	if err := v.ValidateStruct(form{Phone: "+919876543210"}); err != nil {
		t.Errorf("valid phone rejected: %v", err)
	}
	if err := v.ValidateStruct(form{Phone: "abc"}); err == nil {
		t.Error("invalid phone accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, _ := ValidatePassword("abcdefgh"); !ok {
		t.Error("letters-only 8-char password must pass")
	}
	if ok, errs := ValidatePassword("1234"); ok || len(errs) == 0 {
		t.Error("short numeric password must fail with reasons")
	}
}
