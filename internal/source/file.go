package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/internal/ranking"
)

// Format is an input document format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// DetectFormat picks a format from a file extension, defaulting to JSON
func DetectFormat(name string) Format {
	return detectFormat(name, FormatJSON)
}

func detectFormat(name string, fallback Format) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".html", ".htm":
		return FormatHTML
	default:
		return fallback
	}
}

// Parse decodes a document of the given format into raw bank records
func Parse(format Format, data []byte) ([]contracts.RawBank, error) {
	switch format {
	case FormatJSON:
		return ranking.DecodeBatch(bytes.NewReader(data))
	case FormatYAML:
		return FromYAML(bytes.NewReader(data))
	case FormatHTML:
		return FromHTML(bytes.NewReader(data), "")
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// LoadFile reads bank records from a local JSON, YAML or HTML file
func LoadFile(path string) ([]contracts.RawBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	banks, err := Parse(DetectFormat(path), data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return banks, nil
}
