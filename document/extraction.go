package document

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/docdb/wire"
)

// MetadataExtraction controls whether metadata travels with content when the
// caller did not ask for it.
type MetadataExtraction int

const (
	// ExtractNone reads and writes only what the caller asks for
	ExtractNone MetadataExtraction = iota
	// ExtractProperties attaches document properties to content handles on
	// read, and asks the server to derive properties from binary content on
	// write.
	ExtractProperties
	// ExtractAll is ExtractProperties, but reads every metadata category
	ExtractAll
)

func (e MetadataExtraction) String() string {
	switch e {
	case ExtractNone:
		return "none"
	case ExtractProperties:
		return "properties"
	case ExtractAll:
		return "all"
	}
	return fmt.Sprintf("MetadataExtraction(%d)", int(e))
}

// ParseMetadataExtraction converts a policy name. The empty string is none.
func ParseMetadataExtraction(name string) (MetadataExtraction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return ExtractNone, nil
	case "properties":
		return ExtractProperties, nil
	case "all":
		return ExtractAll, nil
	}
	return ExtractNone, fmt.Errorf("unknown metadata extraction %q", name)
}

// categories returns the metadata categories read alongside content
func (e MetadataExtraction) categories() []wire.Category {
	switch e {
	case ExtractProperties:
		return []wire.Category{wire.CategoryProperties}
	case ExtractAll:
		return []wire.Category{wire.CategoryMetadata}
	}
	return nil
}
