package ocr

import "errors"

// ErrRecognition indicates the engine could not produce usable text from the
// input: unreadable image, engine error, timeout, or an empty transcription.
// Callers may fall back to manual entry when they see this error.
var ErrRecognition = errors.New("ocr recognition failed")
