// Package jsonfix repairs the almost-JSON that language models produce.
//
// Model output routinely arrives wrapped in Markdown code fences, prefixed
// with a "json" language tag, or with mismatched braces. Repair applies a
// best-effort cleanup so a subsequent json.Unmarshal has a fighting chance.
//
// Repair is a heuristic, not a parser: its output is NOT guaranteed to be
// valid JSON, and callers must still handle parse failures.
package jsonfix

import (
	"strings"
)

// bracket pairs balanced by Repair, in the order they are processed.
var bracketPairs = [][2]string{
	{"{", "}"},
	{"[", "]"},
}

// Repair strips code fences and a leading language tag, then balances curly
// braces and square brackets. It is idempotent: repairing already-repaired
// (or already-valid) text returns it unchanged.
func Repair(s string) string {
	cleaned := strings.TrimSpace(s)

	// 1) Strip ``` fences.
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
	}

	// 2) Drop leading case-insensitive "json" language tags. Looped so the
	// function stays idempotent even on pathological "json json {...}" input.
	cleaned = strings.TrimSpace(cleaned)
	for len(cleaned) >= 4 && strings.EqualFold(cleaned[:4], "json") {
		cleaned = strings.TrimSpace(cleaned[4:])
	}

	// 3) Balance each bracket type independently.
	for _, pair := range bracketPairs {
		open, close := pair[0], pair[1]

		if diff := strings.Count(cleaned, open) - strings.Count(cleaned, close); diff > 0 {
			cleaned += strings.Repeat(close, diff)
		}
		for strings.Count(cleaned, close) > strings.Count(cleaned, open) {
			cleaned = cleaned[:len(cleaned)-1]
		}
	}

	return cleaned
}
