package constants

import (
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	if DefaultPort != "8080" {
		t.Errorf("Expected DefaultPort to be '8080', got '%s'", DefaultPort)
	}

	if DefaultDBPath != "tesotunes.db" {
		t.Errorf("Expected DefaultDBPath to be 'tesotunes.db', got '%s'", DefaultDBPath)
	}

	if DefaultISRCCountry != "UG" {
		t.Errorf("Expected DefaultISRCCountry to be 'UG', got '%s'", DefaultISRCCountry)
	}

	if len(DefaultISRCRegistrant) != 3 {
		t.Errorf("Expected a 3 character registrant, got '%s'", DefaultISRCRegistrant)
	}

	if len(DefaultUPCPrefix) != 3 {
		t.Errorf("Expected a 3 digit UPC prefix, got '%s'", DefaultUPCPrefix)
	}
}

func TestTaskPolicies(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		timeout  time.Duration
		wantAtt  int
		wantTime time.Duration
	}{
		{"extract", ExtractMaxAttempts, ExtractTimeout, 3, 5 * time.Minute},
		{"promote", PromoteMaxAttempts, PromoteTimeout, 3, 30 * time.Minute},
		{"register", RegisterMaxAttempts, RegisterTimeout, 3, 5 * time.Minute},
		{"international", InternationalMaxAttempts, InternationalTimeout, 2, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attempts != tt.wantAtt {
				t.Errorf("Expected %d attempts, got %d", tt.wantAtt, tt.attempts)
			}
			if tt.timeout != tt.wantTime {
				t.Errorf("Expected timeout %v, got %v", tt.wantTime, tt.timeout)
			}
		})
	}

	if PromoteWaitDelay != 60*time.Second {
		t.Errorf("Expected PromoteWaitDelay to be 60s, got %v", PromoteWaitDelay)
	}
}

func TestByteRates(t *testing.T) {
	want := map[string]int64{
		FormatMP3:  16000,
		FormatWAV:  176400,
		FormatFLAC: 100000,
		FormatAAC:  12000,
		FormatM4A:  12000,
	}
	for format, rate := range want {
		if ByteRates[format] != rate {
			t.Errorf("Expected byte rate %d for %s, got %d", rate, format, ByteRates[format])
		}
	}
}

func TestFilePermissions(t *testing.T) {
	if DirPermissions != 0755 {
		t.Errorf("Expected DirPermissions to be 0755, got %o", DirPermissions)
	}

	if FilePermissions != 0644 {
		t.Errorf("Expected FilePermissions to be 0644, got %o", FilePermissions)
	}
}
