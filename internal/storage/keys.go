package storage

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"
)

// DefaultUploadKeyTemplate lays uploads out per artist and batch.
const DefaultUploadKeyTemplate = "artists/{{.ArtistID}}/{{.BatchID}}/{{.Index}}-{{.Filename}}"

// UploadKeyData holds the data for upload key template execution
type UploadKeyData struct {
	ArtistID int64
	BatchID  string
	Index    string
	Filename string
}

// BuildUploadKey executes the template and returns the blob key for an
// uploaded file. Filename is sanitized and index zero-padded.
func BuildUploadKey(templateStr string, artistID int64, batchID string, index int, filename string) (string, error) {
	tmpl, err := template.New("upload").Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	name := Sanitize(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." {
		return "", fmt.Errorf("invalid upload filename %q", filename)
	}

	data := &UploadKeyData{
		ArtistID: artistID,
		BatchID:  Sanitize(batchID),
		Index:    fmt.Sprintf("%02d", index),
		Filename: name,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return path.Clean(buf.String()), nil
}
