package dto

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/identifiers"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

var filenameRegex = regexp.MustCompile(`^[^/\\\x00]+\.[A-Za-z0-9]{2,5}$`)

func validateArtistID(artistID int64) []ValidationError {
	if artistID <= 0 {
		return []ValidationError{{Field: "artist_id", Message: "must be a positive integer"}}
	}
	return nil
}

func validateTitle(title string) []ValidationError {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return []ValidationError{{Field: "title", Message: "is required"}}
	case len(title) > 255:
		return []ValidationError{{Field: "title", Message: "must be at most 255 characters"}}
	}
	return nil
}

func validateFilename(field, name string) []ValidationError {
	if name == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	if !filenameRegex.MatchString(name) {
		return []ValidationError{{Field: field, Message: "must be a plain file name with an extension"}}
	}
	return nil
}

func validateBlobPath(field, p string) []ValidationError {
	if p == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	clean := path.Clean(p)
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return []ValidationError{{Field: field, Message: "must be a relative path inside the blob store"}}
	}
	return nil
}

// ValidateISRC checks a code in its compact or hyphenated form.
func ValidateISRC(code string) []ValidationError {
	if code == "" {
		return []ValidationError{{Field: "isrc", Message: "is required"}}
	}
	if _, err := identifiers.ParseISRC(strings.ToUpper(code)); err != nil {
		return []ValidationError{{Field: "isrc", Message: "invalid ISRC format (expected: CC-XXX-YY-NNNNN)"}}
	}
	return nil
}
