// Package importer parses externally supplied transaction histories into
// operation records the reconciliation engine can consume. Two formats are
// accepted, CSV and JSON, both with optional fields beyond the date.
package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// dateLayouts are tried in order when parsing record dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseFile reads an operation file, choosing the format from the file
// extension. Files without a recognized extension are sniffed: a leading
// '[' means JSON, anything else is treated as CSV.
func ParseFile(path string) ([]domain.ImportedOperation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".csv":
		return ParseCSV(data)
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return ParseJSON(data)
	}
	return ParseCSV(data)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
