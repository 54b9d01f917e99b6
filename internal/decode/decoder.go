// Package decode recovers human-readable evidence from encoded request
// bodies. Detection is heuristic: short strings and strings outside the
// base64 alphabet pass through untouched, and anything that decodes to pure
// binary noise falls back to the original input.
package decode

import (
	"encoding/base64"
	"strings"
)

// minCandidateLen is the shortest string worth attempting to decode.
// Anything shorter is overwhelmingly likely to be a plain token.
const minCandidateLen = 21

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

// Result is the two-outcome decode signal: either the payload was decoded to
// readable text, or it is the original input unchanged.
type Result struct {
	Text    string
	Decoded bool
}

// Decode attempts to recognize and decode a base64-encoded body. On any
// failure the original string is returned with Decoded false; the call never
// errors. Decode is idempotent on non-candidate input.
func Decode(raw string) Result {
	if !isCandidate(raw) {
		return Result{Text: raw}
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Result{Text: raw}
	}
	text := string(decoded)
	if !hasPrintable(text) {
		return Result{Text: raw}
	}
	return Result{Text: text, Decoded: true}
}

func isCandidate(s string) bool {
	if len(s) < minCandidateLen || len(s)%4 != 0 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(base64Alphabet, r) {
			return false
		}
	}
	return true
}

// hasPrintable reports whether the string contains at least one ASCII rune in
// the visible range. Decoded output with none is treated as noise.
func hasPrintable(s string) bool {
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			return true
		}
	}
	return false
}
