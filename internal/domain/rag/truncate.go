package rag

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func getEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoding, encodingErr
}

// TruncateToTokenLimit cuts text at a token boundary so it fits the
// embedding context window. Text within the limit is returned unchanged.
func TruncateToTokenLimit(text string, limit int) string {
	enc, err := getEncoding()
	if err != nil {
		// Tokeniser data unavailable; fall back to a conservative
		// character cut (~4 chars per token).
		max := limit * 4
		if len(text) > max {
			return text[:max]
		}
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return enc.Decode(tokens[:limit])
}
