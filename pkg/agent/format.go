// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"strings"
)

// Degraded-termination prefixes. Stable so callers and tests can detect a
// forced exit without parsing the rest of the message.
const (
	timeoutPrefix       = "⚠️ **Ответ (из-за истечения лимита времени):**"
	timeoutEmptyMessage = "⚠️ **Истёк лимит времени на обработку**\n\nСистема не смогла завершить обработку за отведённое время. Попробуйте переформулировать вопрос более кратко."
	maxIterPrefix       = "⚠️ **Результат (достигнут лимит итераций):**"
	maxIterEmptyMessage = "⚠️ **Обработка завершена с ошибкой**\n\nДостигнут максимальный лимит итераций без полного завершения. Попробуйте переформулировать запрос."
)

const (
	timeoutUsefulLines = 5
	maxIterUsefulLines = 3
)

// FormatFinal renders the terminal answer: marker lines stripped, and a
// per-tool usage tally appended when any tools ran (grouped by tool,
// first-seen order).
func FormatFinal(answer string, trace []ToolInvocation) string {
	clean := cleanAnswer(answer)

	if len(trace) == 0 {
		return "💬 **Ответ:**\n\n" + clean
	}

	var order []string
	counts := make(map[string]int)
	for _, inv := range trace {
		if counts[inv.Tool] == 0 {
			order = append(order, inv.Tool)
		}
		counts[inv.Tool]++
	}

	var sb strings.Builder
	sb.WriteString("✅ **Результат:**\n\n")
	sb.WriteString(clean)
	sb.WriteString("\n\n📋 **Использованные инструменты:**\n")
	for _, tool := range order {
		switch tool {
		case ToolCalendar:
			fmt.Fprintf(&sb, "📅 Календарь (%d)\n", counts[tool])
		case ToolWebSearch:
			fmt.Fprintf(&sb, "🔍 Веб-поиск (%d)\n", counts[tool])
		default:
			fmt.Fprintf(&sb, "🔧 %s (%d)\n", tool, counts[tool])
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatTimeout synthesizes a best-effort answer from the last raw decision
// text after a wall-clock budget exit.
func FormatTimeout(lastRaw string) string {
	useful := usefulLines(lastRaw, timeoutUsefulLines)
	if len(useful) == 0 {
		return timeoutEmptyMessage
	}
	return timeoutPrefix + "\n\n" + strings.Join(useful, "\n") +
		"\n\n_Обработка была прервана для обеспечения быстрого ответа._"
}

// FormatMaxIterations synthesizes a best-effort answer after the iteration
// cap was hit without a declared final answer.
func FormatMaxIterations(lastRaw string) string {
	useful := usefulLines(lastRaw, maxIterUsefulLines)
	if len(useful) == 0 {
		return maxIterEmptyMessage
	}
	return maxIterPrefix + "\n\n" + strings.Join(useful, "\n")
}

// IsDegraded reports whether a formatted response came from a forced exit.
func IsDegraded(response string) bool {
	return strings.HasPrefix(response, "⚠️")
}

// cleanAnswer drops marker-label lines and bare marker words, then strips
// any marker text that leaked into the remaining answer.
func cleanAnswer(answer string) string {
	bareMarkers := map[string]bool{
		"думаю:": true, "действие:": true, "final_answer:": true, "ответ:": true,
		"думаю": true, "действие": true, "final_answer": true, "ответ": true,
	}

	var kept []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lowered := strings.ToLower(line)
		if bareMarkers[lowered] {
			continue
		}
		if hasMarkerPrefix(lowered) {
			continue
		}
		kept = append(kept, line)
	}

	clean := strings.TrimSpace(strings.Join(kept, "\n"))

	// A leaked final-answer marker means the real answer follows it.
	if idx := strings.LastIndex(strings.ToLower(clean), "final_answer"); idx >= 0 {
		clean = strings.TrimSpace(clean[idx+len("final_answer"):])
		clean = strings.TrimSpace(strings.TrimPrefix(clean, ":"))
	}
	return clean
}

func hasMarkerPrefix(lowered string) bool {
	for _, marker := range []string{"думаю:", "действие:", "final_answer", "ответ:"} {
		if strings.HasPrefix(lowered, marker) {
			return true
		}
	}
	return false
}

// usefulLines keeps the first non-empty lines that carry no protocol
// marker, up to limit.
func usefulLines(raw string, limit int) []string {
	var useful []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lowered := strings.ToLower(line)
		skip := false
		for _, marker := range []string{"думаю:", "действие:", "final_answer:", "ответ:"} {
			if strings.Contains(lowered, marker) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		useful = append(useful, line)
		if len(useful) == limit {
			break
		}
	}
	return useful
}
