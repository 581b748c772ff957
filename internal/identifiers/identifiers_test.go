package identifiers

import (
	"testing"
	"time"
)

func TestUPC(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		artistID int64
		albumID  int64
		expected string
	}{
		{"small ids", "800", 7, 12, "800000700128"},
		{"long ids keep last four digits", "800", 123456, 98765, "800345687658"},
		{"zero ids", "800", 0, 0, "800000000006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UPC(tt.prefix, tt.artistID, tt.albumID)
			if err != nil {
				t.Fatalf("UPC failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("UPC(%s, %d, %d) = %s, want %s", tt.prefix, tt.artistID, tt.albumID, got, tt.expected)
			}
			if !ValidUPC(got) {
				t.Errorf("Generated UPC %s failed validation", got)
			}
		})
	}
}

func TestUPC_IsDeterministic(t *testing.T) {
	a, _ := UPC("800", 42, 1001)
	b, _ := UPC("800", 42, 1001)
	if a != b {
		t.Errorf("Expected identical UPCs, got %s and %s", a, b)
	}
}

func TestUPC_RejectsBadPrefix(t *testing.T) {
	for _, prefix := range []string{"", "80", "8000", "8a0"} {
		if _, err := UPC(prefix, 1, 1); err == nil {
			t.Errorf("Expected error for prefix %q", prefix)
		}
	}
	if _, err := UPC("800", -1, 1); err == nil {
		t.Error("Expected error for negative artist id")
	}
}

func TestUPCCheckDigit(t *testing.T) {
	if got := UPCCheckDigit("80000070012"); got != 8 {
		t.Errorf("Expected check digit 8, got %d", got)
	}
	// Standard UPC-A example
	if got := UPCCheckDigit("03600029145"); got != 2 {
		t.Errorf("Expected check digit 2, got %d", got)
	}
}

func TestValidUPC(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"800000700128", true},
		{"036000291452", true},
		{"800000700127", false},
		{"80000070012", false},
		{"80000070012a", false},
	}
	for _, tt := range tests {
		if got := ValidUPC(tt.code); got != tt.valid {
			t.Errorf("ValidUPC(%s) = %v, want %v", tt.code, got, tt.valid)
		}
	}
}

func TestNewISRC(t *testing.T) {
	code, err := NewISRC("ug", "tes", "26", 42)
	if err != nil {
		t.Fatalf("NewISRC failed: %v", err)
	}
	if code.String() != "UGTES2600042" {
		t.Errorf("Expected UGTES2600042, got %s", code.String())
	}
	if code.Hyphenated() != "UG-TES-26-00042" {
		t.Errorf("Expected UG-TES-26-00042, got %s", code.Hyphenated())
	}

	bad := []struct {
		country, registrant, year string
		designation               int
	}{
		{"U", "TES", "26", 1},
		{"UG", "TE", "26", 1},
		{"UG", "T3S", "26", 1},
		{"UG", "TES", "2", 1},
		{"UG", "TES", "26", 0},
		{"UG", "TES", "26", 100000},
		{"U1", "TES", "26", 1},
	}
	for _, b := range bad {
		if _, err := NewISRC(b.country, b.registrant, b.year, b.designation); err == nil {
			t.Errorf("Expected error for %+v", b)
		}
	}
}

func TestValidISRC(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"UGTES2600001", true},
		{"USABC7607839", true},
		{"UG1ES2600001", false},
		{"UG1232600001", false},
		{"UGTE92600001", false},
		{"UG-TES-26-00001", false},
		{"ugtes2600001", false},
		{"UGTES260001", false},
		{"UGTES26000012", false},
		{"1GTES2600001", false},
		{"UGTES2A00001", false},
	}
	for _, tt := range tests {
		if got := ValidISRC(tt.code); got != tt.valid {
			t.Errorf("ValidISRC(%s) = %v, want %v", tt.code, got, tt.valid)
		}
	}
}

func TestParseISRC_RoundTrip(t *testing.T) {
	for _, input := range []string{"UGTES2600042", "ug-tes-26-00042", " UG-TES-26-00042 "} {
		parsed, err := ParseISRC(input)
		if err != nil {
			t.Fatalf("ParseISRC(%q) failed: %v", input, err)
		}
		if parsed.String() != "UGTES2600042" {
			t.Errorf("ParseISRC(%q).String() = %s", input, parsed.String())
		}
		if parsed.Designation != 42 || parsed.Year != "26" {
			t.Errorf("Unexpected parse of %q: %+v", input, parsed)
		}
	}

	if _, err := ParseISRC("not-an-isrc"); err == nil {
		t.Error("Expected error for malformed input")
	}
}

func TestYearCode(t *testing.T) {
	if got := YearCode(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); got != "26" {
		t.Errorf("Expected 26, got %s", got)
	}
	if got := YearCode(time.Date(2005, 6, 1, 0, 0, 0, 0, time.UTC)); got != "05" {
		t.Errorf("Expected 05, got %s", got)
	}
}
