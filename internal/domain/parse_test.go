package domain

import (
	"errors"
	"testing"
)

func TestParseExtraction(t *testing.T) {
	got, err := ParseExtraction(`{"CFR": "12%", "Sample size": 340, "Notes": null}`)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if got["CFR"] != "12%" {
		t.Errorf("CFR = %q", got["CFR"])
	}
	if got["Sample size"] != "340" {
		t.Errorf("Sample size = %q", got["Sample size"])
	}
	if got["Notes"] != "" {
		t.Errorf("Notes = %q", got["Notes"])
	}
}

func TestParseExtractionCodeFence(t *testing.T) {
	reply := "```json\n{\"CFR\": \"not found\"}\n```"
	got, err := ParseExtraction(reply)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if got["CFR"] != "not found" {
		t.Errorf("CFR = %q", got["CFR"])
	}
}

func TestParseExtractionRejectsProse(t *testing.T) {
	if _, err := ParseExtraction("The CFR is twelve percent."); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestParseStandardText(t *testing.T) {
	text := "- PDF: 558\n" +
		"- # deaths: 12\n" +
		"\n" +
		"**Numerator**: 12\n" +
		"• Denominator: 382\n" +
		"- Statistical approach: \n"

	got, err := ParseStandardText(text)
	if err != nil {
		t.Fatalf("ParseStandardText: %v", err)
	}
	want := map[string]string{
		"PDF":                  "558",
		"# deaths":             "12",
		"Numerator":            "12",
		"Denominator":          "382",
		"Statistical approach": "",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseStandardTextMissingSeparator(t *testing.T) {
	_, err := ParseStandardText("PDF: 558\nthis line has no separator")
	if !errors.Is(err, ErrMissingSeparator) {
		t.Fatalf("expected ErrMissingSeparator, got %v", err)
	}
}

func TestExtractOverallCFR(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Overall Hospitalized CFR: 3.14", "3.14", true},
		{"overall hospitalized CFR = **12.5**", "12.5", true},
		{"Overall Hospitalized CFR: **3.14**", "3.14", true},
		{"No summary line here.", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractOverallCFR(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractOverallCFR(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCalculateCFR(t *testing.T) {
	tests := []struct {
		num, den, want string
	}{
		{"12", "48", "0.25"},
		{"1,250", "10,000 cases", "0.125"},
		{"", "48", ""},
		{"12", "0", ""},
		{"none", "48", ""},
	}
	for _, tt := range tests {
		if got := CalculateCFR(tt.num, tt.den); got != tt.want {
			t.Errorf("CalculateCFR(%q, %q) = %q, want %q", tt.num, tt.den, got, tt.want)
		}
	}
}
