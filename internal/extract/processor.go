package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerlite/ledgerlite/internal/ocr"
)

// UnknownVendor is the vendor value used when no heuristic matches.
const UnknownVendor = "Unknown Vendor"

// Result is the structured outcome of processing one receipt image. Fields
// that could not be matched carry their documented fallback values; RawText
// is always the engine's transcription, verbatim, kept for audit and manual
// correction.
type Result struct {
	Vendor     string    `json:"vendor"`
	TotalCents int64     `json:"total_cents"`
	OccurredAt time.Time `json:"occurred_at"`
	RawText    string    `json:"raw_text"`
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Processor turns receipt images into extraction results. It owns no engine
// lifecycle: a ready-to-use ocr.Engine is injected and closed by whoever
// constructed it.
type Processor struct {
	engine     ocr.Engine
	patterns   Patterns
	timeSource TimeSource

	// engines may hold a single warmed model that is not safe for
	// concurrent use; one recognition is in flight at a time
	mu sync.Mutex
}

// NewProcessor creates a Processor with the default pattern table and clock
func NewProcessor(engine ocr.Engine) *Processor {
	return NewProcessorWithDeps(engine, DefaultPatterns(), &defaultTimeSource{})
}

// NewProcessorWithDeps creates a Processor with custom dependencies for testing
func NewProcessorWithDeps(engine ocr.Engine, patterns Patterns, timeSource TimeSource) *Processor {
	return &Processor{
		engine:     engine,
		patterns:   patterns,
		timeSource: timeSource,
	}
}

// Process runs one recognition and assembles a Result from the heuristics,
// applying fallbacks for anything that could not be matched. There is no
// retry here; retrying a failed recognition is the caller's policy. The call
// is atomic from the caller's perspective: a full Result or an error.
func (p *Processor) Process(ctx context.Context, imageData []byte, contentType string) (*Result, error) {
	p.mu.Lock()
	text, err := p.engine.Recognize(ctx, imageData, contentType)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("recognizing receipt: %w", err)
	}

	fields := Extract(text, p.patterns)

	result := &Result{
		Vendor:     UnknownVendor,
		TotalCents: 0,
		OccurredAt: p.timeSource.Now(),
		RawText:    text,
	}

	if fields.VendorFound {
		result.Vendor = fields.Vendor
	}
	if fields.TotalFound {
		result.TotalCents = fields.TotalCents
	}
	if fields.DateFound {
		if date, ok := NormalizeDate(fields.DateText); ok {
			result.OccurredAt = date
		}
	}

	return result, nil
}
