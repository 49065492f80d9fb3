package ocr

import "context"

// Engine defines the interface for optical character recognition.
// One call performs one logical recognition: implementations return either
// the full recognized text or an error wrapping ErrRecognition, never a
// partial result.
type Engine interface {
	// Recognize extracts the raw text from a receipt image or PDF
	Recognize(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases engine resources
	Close() error
}
