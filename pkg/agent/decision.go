// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"regexp"
	"strings"
)

// bracketScanWindow caps how far the bracket-balanced scan looks ahead,
// counted in runes so Cyrillic arguments get the same budget as ASCII.
// Tool expressions longer than this are treated as absent.
const bracketScanWindow = 300

// finalAnswerRe matches a final-answer marker followed by a line break and
// captures everything up to the next protocol marker or end of text. The
// marker set is bilingual and case-insensitive.
var finalAnswerRe = regexp.MustCompile(`(?is)(?:final_answer|ответ):[ \t]*\r?\n(.*?)(?:\n\s*(?:думаю|действие|final|ответ)|$)`)

// fallbackMarkers are label prefixes stripped from unclassified responses
// before they are surfaced as answers.
var fallbackMarkers = []string{"думаю:", "действие:", "final_answer:", "ответ:", "action:"}

// ParseDecision classifies one raw model response. It is total: any input
// yields a decision, protocol violations fall back to an answer.
//
// Priority: final-answer marker, then CALENDAR[, then WEBSEARCH[, then the
// cleaned raw text. Markers echoed inside answer prose are not escaped;
// first match wins.
func ParseDecision(raw string) Decision {
	if m := finalAnswerRe.FindStringSubmatch(raw); m != nil {
		if text := strings.TrimSpace(m[1]); text != "" {
			return Decision{Kind: KindFinalAnswer, Text: text}
		}
	}

	if expr, ok := scanToolExpr(raw, "calendar["); ok {
		return Decision{Kind: KindToolCall, Tool: ToolCalendar, RawArgs: expr}
	}
	if expr, ok := scanToolExpr(raw, "websearch["); ok {
		return Decision{Kind: KindToolCall, Tool: ToolWebSearch, RawArgs: expr}
	}

	return Decision{Kind: KindUnclassified, Text: stripMarkerLabels(raw)}
}

// scanToolExpr finds marker (lowercase, ASCII) case-insensitively and
// captures the bracket-balanced expression starting at its opening bracket.
// Unbalanced brackets within the scan window produce no match.
func scanToolExpr(raw, marker string) (string, bool) {
	start := strings.Index(asciiLower(raw), marker)
	if start < 0 {
		return "", false
	}

	window := raw[start:]
	if n := runePrefixLen(window, bracketScanWindow); n < len(window) {
		window = window[:n]
	}

	depth := 0
	for i := 0; i < len(window); i++ {
		switch window[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return window[:i+1], true
			}
		}
	}
	return "", false
}

// runePrefixLen returns the byte length of the first n runes of s.
func runePrefixLen(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// asciiLower lowercases ASCII letters only, preserving byte offsets for any
// multi-byte runes around them.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// stripMarkerLabels removes protocol label prefixes from each line and
// returns the trimmed remainder. Falls back to the trimmed input when
// stripping leaves nothing.
func stripMarkerLabels(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		for _, marker := range fallbackMarkers {
			// Cyrillic case pairs are the same byte width, so offsets
			// into the lowered string index the original correctly.
			idx := strings.Index(strings.ToLower(line), marker)
			if idx >= 0 {
				line = strings.TrimLeft(line[idx+len(marker):], " \t")
			}
		}
		lines[i] = line
	}

	cleaned := strings.TrimSpace(strings.Join(lines, "\n"))
	if cleaned == "" {
		return strings.TrimSpace(raw)
	}
	return cleaned
}
