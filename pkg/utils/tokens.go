package utils

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkoukk/tiktoken-go"
)

var encoding = sync.OnceValue(func() *tiktoken.Tiktoken {
	tkm, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Warn("tiktoken unavailable, estimating token counts", "error", err)
		return nil
	}
	return tkm
})

// CountTokens returns the cl100k token count of text, or a four characters
// per token estimate when the encoding cannot be loaded.
func CountTokens(text string) int {
	if tkm := encoding(); tkm != nil {
		return len(tkm.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// TrimToBudget keeps the longest suffix of items whose combined token count
// fits in budget. The newest item is always kept.
func TrimToBudget[T any](items []T, budget int, text func(T) string, count func(string) int) []T {
	if len(items) == 0 || budget <= 0 {
		return items
	}
	if count == nil {
		count = CountTokens
	}
	used := 0
	start := len(items)
	for i := len(items) - 1; i >= 0; i-- {
		n := count(text(items[i]))
		if used+n > budget && start < len(items) {
			break
		}
		used += n
		start = i
	}
	return items[start:]
}
