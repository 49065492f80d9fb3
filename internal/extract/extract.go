package extract

import (
	"strconv"
	"strings"
)

// Fields holds the extraction candidates matched from raw OCR text. Each
// candidate carries an explicit found flag; a zero value with the flag unset
// means "absent", never "empty".
type Fields struct {
	Vendor      string
	VendorFound bool

	TotalCents int64
	TotalFound bool

	DateText  string
	DateFound bool
}

// Extract runs the keyword heuristics over raw OCR text and returns
// best-effort candidates for vendor, total, and date. Receipts are visually
// unstructured, so keyword-anchored matching plus a positional vendor
// fallback is the cheapest approach that tolerates OCR noise without layout
// analysis.
func Extract(text string, patterns Patterns) Fields {
	var fields Fields

	if m := patterns.Total.FindStringSubmatch(text); m != nil {
		if cents, ok := parseCents(m[1]); ok {
			fields.TotalCents = cents
			fields.TotalFound = true
		}
	}

	if m := patterns.Date.FindStringSubmatch(text); m != nil {
		fields.DateText = m[1]
		fields.DateFound = true
	}

	if m := patterns.Vendor.FindStringSubmatch(text); m != nil {
		if vendor := strings.TrimSpace(m[1]); vendor != "" {
			fields.Vendor = vendor
			fields.VendorFound = true
		}
	}
	if !fields.VendorFound {
		if vendor, ok := vendorFromLines(text); ok {
			fields.Vendor = vendor
			fields.VendorFound = true
		}
	}

	return fields
}

// vendorFromLines scans top-down for the first line that looks like a
// business name: trimmed length strictly between 3 and 50 and not starting
// with a digit.
func vendorFromLines(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 3 || len(line) >= 50 {
			continue
		}
		if line[0] >= '0' && line[0] <= '9' {
			continue
		}
		return line, true
	}
	return "", false
}

// parseCents parses a matched decimal amount ("42", "42.5", "42.50") into
// integer cents without going through floating point.
func parseCents(s string) (int64, bool) {
	whole, frac, _ := strings.Cut(s, ".")

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars < 0 {
		return 0, false
	}

	var cents int64
	switch len(frac) {
	case 0:
	case 1:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
		cents = d * 10
	case 2:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
		cents = d
	default:
		return 0, false
	}

	return dollars*100 + cents, true
}
