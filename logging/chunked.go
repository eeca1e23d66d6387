package logging

import (
	"go.uber.org/zap"
)

// DefaultChunkSize is the rune count LogLongText uses when size <= 0.
const DefaultChunkSize = 1000

// LogLongText writes text at info level in pieces of at most size runes,
// for sinks that truncate long lines. Each piece carries its position.
func LogLongText(logger Logger, text string, size int) {
	if logger == nil {
		logger = Global()
	}
	for i, chunk := range SplitChunks(text, size) {
		logger.Info(chunk, zap.Int("chunk", i))
	}
}

// SplitChunks splits text into pieces of at most size runes without
// breaking a multi-byte character. It never returns an empty piece.
func SplitChunks(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
