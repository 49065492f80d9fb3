package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Filter restricts which records a summary covers. Start and End bound an
// inclusive date window; a nil bound is unbounded on that side. An inverted
// window (start after end) matches nothing. Summaries never cross owners.
type Filter struct {
	OwnerID string
	Start   *time.Time
	End     *time.Time
}

// matches reports whether a record falls inside the filter
func (f Filter) matches(t *Transaction) bool {
	if f.OwnerID != "" && t.OwnerID != f.OwnerID {
		return false
	}
	if f.Start != nil && t.OccurredAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.OccurredAt.After(endOfDay(*f.End)) {
		return false
	}
	return true
}

// endOfDay pushes an inclusive end bound to the last instant of its calendar
// day so a window of [d, d] covers the whole of day d.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// TypeTotal is the total and record count for one grouping bucket
type TypeTotal struct {
	TotalCents int64 `json:"total_cents"`
	Count      int   `json:"count"`
}

// GroupKey identifies a (kind, category) bucket. It serializes as
// "kind/category" so the grouping survives JSON encoding as a map key.
type GroupKey struct {
	Kind     Kind
	Category Category
}

// MarshalText implements encoding.TextMarshaler for use as a JSON map key
func (k GroupKey) MarshalText() ([]byte, error) {
	return []byte(string(k.Kind) + "/" + string(k.Category)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *GroupKey) UnmarshalText(text []byte) error {
	kind, category, ok := strings.Cut(string(text), "/")
	if !ok {
		return fmt.Errorf("invalid group key: %q", text)
	}
	k.Kind = Kind(kind)
	k.Category = Category(category)
	return nil
}

// CategoryTotal is one entry in the ranked expense-by-category list
type CategoryTotal struct {
	Category   Category `json:"category"`
	TotalCents int64    `json:"total_cents"`
}

// Summary is the multi-dimensional rollup over a set of transactions.
// ByCategory ranks expense totals only, descending; the income side is
// already covered by ByType and ByTypeAndCategory. NetCents is income minus
// expense.
type Summary struct {
	ByType            map[Kind]TypeTotal     `json:"by_type"`
	ByTypeAndCategory map[GroupKey]TypeTotal `json:"by_type_and_category"`
	ByCategory        []CategoryTotal        `json:"by_category"`
	NetCents          int64                  `json:"net_cents"`
}

// Summarize computes grouped totals and counts over the given records in a
// single pass. Amounts are integer cents, so sums are exact regardless of
// iteration order. An empty input yields all-zero totals, never an error. A
// zero-amount record still counts toward Count.
func Summarize(records []*Transaction, filter Filter) Summary {
	summary := Summary{
		ByType:            map[Kind]TypeTotal{Income: {}, Expense: {}},
		ByTypeAndCategory: make(map[GroupKey]TypeTotal),
		ByCategory:        []CategoryTotal{},
	}

	expenseByCategory := make(map[Category]int64)

	for _, t := range records {
		if !filter.matches(t) {
			continue
		}

		byType := summary.ByType[t.Kind]
		byType.TotalCents += t.AmountCents
		byType.Count++
		summary.ByType[t.Kind] = byType

		key := GroupKey{Kind: t.Kind, Category: t.Category}
		byGroup := summary.ByTypeAndCategory[key]
		byGroup.TotalCents += t.AmountCents
		byGroup.Count++
		summary.ByTypeAndCategory[key] = byGroup

		switch t.Kind {
		case Income:
			summary.NetCents += t.AmountCents
		case Expense:
			summary.NetCents -= t.AmountCents
			expenseByCategory[t.Category] += t.AmountCents
		}
	}

	for category, total := range expenseByCategory {
		summary.ByCategory = append(summary.ByCategory, CategoryTotal{Category: category, TotalCents: total})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.TotalCents != b.TotalCents {
			return a.TotalCents > b.TotalCents
		}
		return a.Category < b.Category
	})

	return summary
}
