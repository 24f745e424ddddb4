package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"36123456", true},
		{"22236123456", true},
		{"+222 36 12 34 56", true},
		{"41234567", true},
		// local number that itself starts with 222
		{"22234567", true},
		{"22222234567", true},
		{"12345678", false}, // bad leading digit
		{"3612345", false},  // too short
		{"361234567", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := ValidatePhoneNumber(tc.in); got != tc.want {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"36123456", "22236123456"},
		{"+222 36 12 34 56", "22236123456"},
		{"00222 36123456", "22236123456"},
		{"22234567", "22222234567"},
		{"22236123456", "22236123456"},
	}

	for _, tc := range tests {
		if got := FormatPhoneNumber(tc.in); got != tc.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
