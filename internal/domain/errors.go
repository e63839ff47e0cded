package domain

import "errors"

// Error kinds surfaced by the chat pipeline. Callers wrap them with context
// and match with errors.Is.
var (
	ErrRequestParse = errors.New("request parse error")
	ErrEmbedding    = errors.New("embedding error")
	ErrRetrieval    = errors.New("retrieval error")
	ErrGeneration   = errors.New("generation error")
)

// Kind names the error category for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRequestParse):
		return "request_parse"
	case errors.Is(err, ErrEmbedding):
		return "embedding"
	case errors.Is(err, ErrRetrieval):
		return "retrieval"
	case errors.Is(err, ErrGeneration):
		return "generation"
	default:
		return "unknown"
	}
}
