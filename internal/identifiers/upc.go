// Package identifiers builds and validates the UPC-A and ISRC codes attached
// to promoted albums and songs.
package identifiers

import (
	"fmt"
	"strconv"
)

const (
	upcLength     = 12
	upcPrefixLen  = 3
	upcSegmentLen = 4
	upcSegmentMod = 10000
)

// UPC builds a 12 digit UPC-A from a 3 digit prefix, the artist id and the
// album id. Ids are reduced to their last four digits and zero padded.
func UPC(prefix string, artistID, albumID int64) (string, error) {
	if len(prefix) != upcPrefixLen || !allDigits(prefix) {
		return "", fmt.Errorf("upc prefix must be %d digits, got %q", upcPrefixLen, prefix)
	}
	if artistID < 0 || albumID < 0 {
		return "", fmt.Errorf("upc ids must be non-negative, got artist=%d album=%d", artistID, albumID)
	}

	body := fmt.Sprintf("%s%0*d%0*d", prefix,
		upcSegmentLen, artistID%upcSegmentMod,
		upcSegmentLen, albumID%upcSegmentMod)
	return body + strconv.Itoa(UPCCheckDigit(body)), nil
}

// UPCCheckDigit computes the UPC-A check digit for an 11 digit body.
// Digits at even zero-based positions weigh 3, odd positions weigh 1.
func UPCCheckDigit(body string) int {
	sum := 0
	for i, r := range body {
		d := int(r - '0')
		if i%2 == 0 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	return (10 - sum%10) % 10
}

// ValidUPC reports whether code is 12 digits with a correct check digit.
func ValidUPC(code string) bool {
	if len(code) != upcLength || !allDigits(code) {
		return false
	}
	return UPCCheckDigit(code[:upcLength-1]) == int(code[upcLength-1]-'0')
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
