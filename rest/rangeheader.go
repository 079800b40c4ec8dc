package rest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RangeHeader maps a start offset and length to an HTTP Range header value.
// A zero length reads to the end of the document. It returns "" when the
// whole document is requested.
func RangeHeader(start, length int64) string {
	switch {
	case start <= 0 && length <= 0:
		return ""
	case length <= 0:
		return fmt.Sprintf("bytes=%d-", start)
	default:
		start = max(start, 0)
		end := int64(math.MaxInt64)
		if length <= math.MaxInt64-start {
			end = start + length - 1
		}
		return fmt.Sprintf("bytes=%d-%d", start, end)
	}
}

// ParseRangeHeader parses a single "bytes=first-last" or "bytes=first-" range.
// last is -1 for an open-ended range. Suffix ranges are not supported.
func ParseRangeHeader(value string) (first, last int64, err error) {
	ranges, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes=")
	if !ok || strings.Contains(ranges, ",") {
		return 0, 0, fmt.Errorf("unsupported range %q", value)
	}
	from, to, ok := strings.Cut(ranges, "-")
	if !ok || from == "" {
		return 0, 0, fmt.Errorf("unsupported range %q", value)
	}
	if first, err = strconv.ParseInt(from, 10, 64); err != nil || first < 0 {
		return 0, 0, fmt.Errorf("invalid range start in %q", value)
	}
	if to == "" {
		return first, -1, nil
	}
	if last, err = strconv.ParseInt(to, 10, 64); err != nil || last < first {
		return 0, 0, fmt.Errorf("invalid range end in %q", value)
	}
	return first, last, nil
}
