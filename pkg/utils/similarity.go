package utils

import (
	"strings"
	"unicode/utf8"

	"taleweaver/pkg/pool"
)

type levRows struct {
	prev []int
	curr []int
}

func (l *levRows) Reset() {
	l.prev = l.prev[:0]
	l.curr = l.curr[:0]
}

func (l *levRows) size(n int) {
	l.prev = grow(l.prev, n)
	l.curr = grow(l.curr, n)
}

func grow(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

var rowsPool = pool.New(func() *levRows {
	return &levRows{
		prev: make([]int, 0, 256),
		curr: make([]int, 0, 256),
	}
})

// Levenshtein returns the rune edit distance between a and b.
func Levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(br) > len(ar) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}

	rows := rowsPool.Get()
	defer rowsPool.Put(rows)
	rows.size(len(br) + 1)

	for j := range rows.prev {
		rows.prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		rows.curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			rows.curr[j] = min(rows.prev[j]+1, rows.curr[j-1]+1, rows.prev[j-1]+cost)
		}
		rows.prev, rows.curr = rows.curr, rows.prev
	}
	return rows.prev[len(br)]
}

// Similarity returns a case-insensitive score between 0 and 1 (1 = identical).
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// MergeSimilar appends each candidate to base unless it is at least threshold
// similar to an entry already present.
func MergeSimilar(base, candidates []string, threshold float64) []string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		dup := false
		for _, b := range base {
			if Similarity(b, c) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			base = append(base, c)
		}
	}
	return base
}
