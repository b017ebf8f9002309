package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var paragraphRX = regexp.MustCompile(`\n{2,}`)

// ChunkText splits text into pieces of at most limit runes. It prefers
// paragraph boundaries, then line boundaries, then whitespace, and hard-cuts
// words longer than limit.
func ChunkText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return nil
	}
	if runeLen(text) <= limit {
		return []string{text}
	}

	blocks, joiner := []string{text}, " "
	switch {
	case paragraphRX.MatchString(text):
		blocks, joiner = paragraphRX.Split(text, -1), "\n\n"
	case strings.Contains(text, "\n"):
		blocks, joiner = strings.Split(text, "\n"), "\n"
	}

	var out []string
	cur := ""
	add := func(piece string) {
		if cur == "" {
			cur = piece
			return
		}
		if runeLen(cur)+runeLen(joiner)+runeLen(piece) <= limit {
			cur += joiner + piece
			return
		}
		out = append(out, cur)
		cur = piece
	}

	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if runeLen(b) <= limit {
			add(b)
			continue
		}
		for _, p := range splitBySpace(b, limit) {
			add(p)
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func splitBySpace(s string, limit int) []string {
	var parts []string
	for s != "" {
		if runeLen(s) <= limit {
			parts = append(parts, s)
			break
		}
		cut := cutIndex(s, limit)
		parts = append(parts, strings.TrimSpace(s[:cut]))
		s = strings.TrimLeftFunc(s[cut:], unicode.IsSpace)
	}
	return parts
}

// cutIndex returns the byte offset of the last whitespace within the first
// limit runes, or the offset of rune limit when there is none.
func cutIndex(s string, limit int) int {
	last, n := -1, 0
	for i, r := range s {
		if n == limit {
			if last > 0 {
				return last
			}
			return i
		}
		if unicode.IsSpace(r) {
			last = i
		}
		n++
	}
	return len(s)
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
