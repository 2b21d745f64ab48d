package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+972541234567",
			want:  "+972541234567",
		},
		{
			name:  "with spaces",
			input: "+972 54 123 4567",
			want:  "+972541234567",
		},
		{
			name:  "with dashes",
			input: "+972-54-123-4567",
			want:  "+972541234567",
		},
		{
			name:  "with parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +972541234567  ",
			want:  "+972541234567",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "garbage input",
			input: "not a phone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	input := "+972 54 123 4567"
	once := NormalizePhone(input)
	twice := NormalizePhone(once)
	if once != twice {
		t.Errorf("NormalizePhone not idempotent: %q != %q", once, twice)
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "collapse internal whitespace",
			input: "The  Velvet\tRoom",
			want:  "The Velvet Room",
		},
		{
			name:  "trim edges",
			input: "  Crown Hall  ",
			want:  "Crown Hall",
		},
		{
			name:  "newlines collapse to single space",
			input: "late\nnight\nset",
			want:  "late night set",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: " \t\n ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "spaces removed",
			input: "Tel Aviv",
			want:  "telaviv",
		},
		{
			name:  "hyphens removed",
			input: "Winston-Salem",
			want:  "winstonsalem",
		},
		{
			name:  "already normalized",
			input: "haifa",
			want:  "haifa",
		},
		{
			name:  "digits kept",
			input: "District 9",
			want:  "district9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCity(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCities(t *testing.T) {
	input := []string{"Tel Aviv", "tel-aviv", "", "Haifa", "  "}
	want := []string{"telaviv", "haifa"}

	got := NormalizeCities(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeCities(%v) = %v, want %v", input, got, want)
	}
}

func TestNormalizeStringSliceEmpty(t *testing.T) {
	got := NormalizeStringSlice(nil, NormalizeCity)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}
