package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Patterns holds the keyword-anchored expressions the extractor matches
// against raw OCR text. They are configuration, not control flow: new vendor
// labels or date layouts are added here without touching the extractor.
type Patterns struct {
	Total  *regexp.Regexp
	Date   *regexp.Regexp
	Vendor *regexp.Regexp
}

var (
	totalKeywords  = []string{"total", "amount", "sum", "balance"}
	dateKeywords   = []string{"date", "purchase date"}
	vendorKeywords = []string{"from", "vendor", "store", "merchant"}
)

// DefaultPatterns builds the standard pattern table from the keyword lists.
func DefaultPatterns() Patterns {
	return Patterns{
		Total:  keywordPattern(totalKeywords, `[$]?\s*(\d+(?:\.\d{1,2})?)`),
		Date:   keywordPattern(dateKeywords, `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
		Vendor: keywordPattern(vendorKeywords, `([^\n]+)`),
	}
}

// keywordPattern anchors a capture expression behind any of the given
// keywords, case-insensitively, tolerating the colon/whitespace noise OCR
// leaves between a label and its value.
func keywordPattern(keywords []string, capture string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(k), ` `, `\s+`)
	}
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:%s)[\s:]*%s`, strings.Join(quoted, "|"), capture))
}
