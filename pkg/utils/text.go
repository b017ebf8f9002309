package utils

import (
	"strings"
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into runs of whitespace, word characters and
// punctuation so that joining the tokens reproduces s.
func TokenizeWords(s string) []string {
	var out []string
	var cur strings.Builder
	kind := -1 // 0=space,1=word,2=punct
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if k != kind && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		kind = k
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

type DeltaOp string

const (
	OpEqual  DeltaOp = "equal"
	OpInsert DeltaOp = "insert"
	OpDelete DeltaOp = "delete"
)

type WordDelta struct {
	Op   DeltaOp `json:"op"`
	Text string  `json:"text"`
}

// DiffWords returns the word-level edit script from a to b. Adjacent deltas
// with the same op are merged.
func DiffWords(a, b string) []WordDelta {
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		var op DeltaOp
		switch r.Delta {
		case difflib.Common:
			op = OpEqual
		case difflib.LeftOnly:
			op = OpDelete
		case difflib.RightOnly:
			op = OpInsert
		default:
			continue
		}
		if n := len(out); n > 0 && out[n-1].Op == op {
			out[n-1].Text += r.Payload
			continue
		}
		out = append(out, WordDelta{Op: op, Text: r.Payload})
	}
	return out
}
