package utils

import "testing"

func TestValidateDate(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"2024-05-01", false},
		{"2024-12-31", false},
		{"2024-13-01", true},
		{"01-05-2024", true},
		{"2024-05-1", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateDate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	if err := ValidateText("reason", "fever"); err != nil {
		t.Errorf("ValidateText() unexpected error: %v", err)
	}
	if err := ValidateText("reason", "   "); err == nil {
		t.Error("ValidateText() should reject whitespace-only text")
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \t ") {
		t.Error("IsBlank() should report whitespace-only as blank")
	}
	if IsBlank("ok") {
		t.Error("IsBlank() should not report text as blank")
	}
}
