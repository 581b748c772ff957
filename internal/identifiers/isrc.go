package identifiers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	isrcLength        = 12
	maxDesignation    = 99999
	countryCodeLength = 2
	registrantCodeLen = 3
)

var isrcPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z]{3}[0-9]{2}[0-9]{5}$`)

// ISRC is a decomposed International Standard Recording Code.
type ISRC struct {
	Country     string
	Registrant  string
	Year        string
	Designation int
}

// String renders the compact 12 character form.
func (c ISRC) String() string {
	return fmt.Sprintf("%s%s%s%05d", c.Country, c.Registrant, c.Year, c.Designation)
}

// Hyphenated renders the display form CC-XXX-YY-NNNNN.
func (c ISRC) Hyphenated() string {
	return fmt.Sprintf("%s-%s-%s-%05d", c.Country, c.Registrant, c.Year, c.Designation)
}

// YearCode returns the two digit year used in the ISRC for t.
func YearCode(t time.Time) string {
	return fmt.Sprintf("%02d", t.Year()%100)
}

// NewISRC assembles a code and validates every segment.
func NewISRC(country, registrant, year string, designation int) (ISRC, error) {
	c := ISRC{
		Country:     strings.ToUpper(country),
		Registrant:  strings.ToUpper(registrant),
		Year:        year,
		Designation: designation,
	}
	if len(c.Country) != countryCodeLength {
		return ISRC{}, fmt.Errorf("isrc country code must be %d letters, got %q", countryCodeLength, country)
	}
	if len(c.Registrant) != registrantCodeLen {
		return ISRC{}, fmt.Errorf("isrc registrant code must be %d characters, got %q", registrantCodeLen, registrant)
	}
	if designation < 1 || designation > maxDesignation {
		return ISRC{}, fmt.Errorf("isrc designation %d out of range 1-%d", designation, maxDesignation)
	}
	if !ValidISRC(c.String()) {
		return ISRC{}, fmt.Errorf("isrc %q is malformed", c.String())
	}
	return c, nil
}

// ValidISRC reports whether code matches CC XXX YY NNNNN with no separators.
func ValidISRC(code string) bool {
	return len(code) == isrcLength && isrcPattern.MatchString(code)
}

// ParseISRC accepts the compact or hyphenated form in any case.
func ParseISRC(code string) (ISRC, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
	if !ValidISRC(normalized) {
		return ISRC{}, fmt.Errorf("invalid isrc %q", code)
	}
	designation, err := strconv.Atoi(normalized[7:])
	if err != nil {
		return ISRC{}, fmt.Errorf("invalid isrc designation in %q: %w", code, err)
	}
	return ISRC{
		Country:     normalized[0:2],
		Registrant:  normalized[2:5],
		Year:        normalized[5:7],
		Designation: designation,
	}, nil
}
