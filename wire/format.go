// Package wire holds the data model shared by the docdb REST client and
// server: formats, document metadata, search criteria and query results.
package wire

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Format identifies how the content of a document is structured
type Format string

const (
	FormatUnknown Format = ""
	FormatXML     Format = "xml"
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatBinary  Format = "binary"
)

// Formats lists every concrete format
var Formats = []Format{FormatXML, FormatJSON, FormatText, FormatBinary}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// DefaultMimeType returns the MIME type used for content of this format when
// the caller has not specified one.
func (f Format) DefaultMimeType() string {
	switch f {
	case FormatXML:
		return "application/xml"
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain"
	case FormatBinary:
		return "application/octet-stream"
	default:
		return "application/x-unknown-content-type"
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return FormatUnknown, nil
	case "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "binary", "bin":
		return FormatBinary, nil
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", name)
}

// FormatFromMimeType infers a format from a MIME type. Parameters such as
// charset are ignored.
func FormatFromMimeType(mimeType string) Format {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch {
	case mt == "":
		return FormatUnknown
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return FormatJSON
	case mt == "application/xml" || mt == "text/xml" || strings.HasSuffix(mt, "+xml"):
		return FormatXML
	case strings.HasPrefix(mt, "text/"):
		return FormatText
	default:
		return FormatBinary
	}
}

// FormatFromPath infers a format from a file name or document URI
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".xsd", ".xsl", ".xhtml", ".svg":
		return FormatXML
	case ".json":
		return FormatJSON
	case ".txt", ".md", ".markdown", ".csv", ".yaml", ".yml", ".html", ".htm":
		return FormatText
	case "":
		return FormatUnknown
	default:
		return FormatBinary
	}
}

// MimeTypeFromPath returns the MIME type for a file name, falling back to the
// default for the inferred format.
func MimeTypeFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return FormatFromPath(path).DefaultMimeType()
}
