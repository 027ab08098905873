package validator

import (
	"testing"

	"github.com/bimuz/bimuz-backend/internal/model"
)

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+998901234567", true},
		{"998901234567", true},
		{"901234567", true},
		{"+1998901234567", true},
		{"12345678", false},
		{"+99890-123-45-67", false},
		{"phone", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.phone); got != tt.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

type payload struct {
	Phone      string `json:"phone" validate:"required,phone"`
	Month      string `json:"month" validate:"required,month"`
	Role       string `json:"role" validate:"required,role"`
	Speciality string `json:"speciality" validate:"omitempty,speciality"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	ok := payload{Phone: "+998901234567", Month: "2025-03", Role: string(model.RoleMentor), Speciality: string(model.SpecialityTeklaStructure)}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	bad := payload{Phone: "abc", Month: "2025-13", Role: "janitor", Speciality: "autocad"}
	err := v.Struct(bad)
	if err == nil {
		t.Fatal("invalid payload accepted")
	}
	fields := TranslateErrors(err)
	for _, name := range []string{"phone", "month", "role", "speciality"} {
		if fields[name] == "" {
			t.Errorf("missing translated error for %q in %v", name, fields)
		}
	}
	if fields["month"] != "month must use the YYYY-MM format" {
		t.Errorf("month message = %q", fields["month"])
	}
}
