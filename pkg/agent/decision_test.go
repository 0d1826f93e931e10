// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"strings"
	"testing"
)

func TestParseFinalAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "english marker",
			raw:  "FINAL_ANSWER:\nThe answer is 42.",
			want: "The answer is 42.",
		},
		{
			name: "russian marker",
			raw:  "ОТВЕТ:\nГотово, задача создана.",
			want: "Готово, задача создана.",
		},
		{
			name: "lowercase marker",
			raw:  "final_answer:\nhello",
			want: "hello",
		},
		{
			name: "capture stops at next marker",
			raw:  "ОТВЕТ:\nВот результат.\nДУМАЮ: а может ещё поискать",
			want: "Вот результат.",
		},
		{
			name: "thinking before the answer",
			raw:  "ДУМАЮ: всё ясно\nFINAL_ANSWER:\nВсё готово.",
			want: "Всё готово.",
		},
		{
			name: "answer wins over later tool marker",
			raw:  "ОТВЕТ:\nDone.\nДЕЙСТВИЕ: CALENDAR[текущая_дата]",
			want: "Done.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDecision(tt.raw)
			if d.Kind != KindFinalAnswer {
				t.Fatalf("kind = %v, want KindFinalAnswer", d.Kind)
			}
			if d.Text != tt.want {
				t.Errorf("text = %q, want %q", d.Text, tt.want)
			}
		})
	}
}

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantTool string
		wantArgs string
	}{
		{
			name:     "calendar create",
			raw:      "ДЕЙСТВИЕ: CALENDAR[создать_задачу | название: Test | дата: 2025-12-01 | время: 10:00]",
			wantTool: ToolCalendar,
			wantArgs: "CALENDAR[создать_задачу | название: Test | дата: 2025-12-01 | время: 10:00]",
		},
		{
			name:     "lowercase marker",
			raw:      "calendar[текущая_дата]",
			wantTool: ToolCalendar,
			wantArgs: "calendar[текущая_дата]",
		},
		{
			name:     "websearch",
			raw:      "ДУМАЮ: нужен поиск\nДЕЙСТВИЕ: WEBSEARCH[запрос: погода | результатов: 3]",
			wantTool: ToolWebSearch,
			wantArgs: "WEBSEARCH[запрос: погода | результатов: 3]",
		},
		{
			name:     "nested brackets captured exactly",
			raw:      "ДЕЙСТВИЕ: CALENDAR[создать_задачу | название: экзамен [матан] | дата: 2025-12-01 | время: 09:00] хвост",
			wantTool: ToolCalendar,
			wantArgs: "CALENDAR[создать_задачу | название: экзамен [матан] | дата: 2025-12-01 | время: 09:00]",
		},
		{
			name:     "calendar takes priority over websearch",
			raw:      "CALENDAR[текущая_дата] WEBSEARCH[запрос: x]",
			wantTool: ToolCalendar,
			wantArgs: "CALENDAR[текущая_дата]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDecision(tt.raw)
			if d.Kind != KindToolCall {
				t.Fatalf("kind = %v, want KindToolCall", d.Kind)
			}
			if d.Tool != tt.wantTool {
				t.Errorf("tool = %q, want %q", d.Tool, tt.wantTool)
			}
			if d.RawArgs != tt.wantArgs {
				t.Errorf("args = %q, want %q", d.RawArgs, tt.wantArgs)
			}
		})
	}
}

func TestParseUnbalancedBrackets(t *testing.T) {
	d := ParseDecision("ДЕЙСТВИЕ: CALENDAR[создать_задачу | название: Test")
	if d.Kind != KindUnclassified {
		t.Fatalf("kind = %v, want KindUnclassified for unbalanced brackets", d.Kind)
	}
}

func TestParseBracketScanWindow(t *testing.T) {
	// The closing bracket is past the scan window, so no tool call.
	raw := "CALENDAR[запрос: " + strings.Repeat("x", bracketScanWindow) + "]"
	d := ParseDecision(raw)
	if d.Kind != KindUnclassified {
		t.Fatalf("kind = %v, want KindUnclassified for over-long expression", d.Kind)
	}
}

func TestParseScanWindowCountsRunes(t *testing.T) {
	// 241 runes but 441 bytes: a long Cyrillic title must fit the window
	// the same way an ASCII one does.
	title := strings.Repeat("я", 170)
	raw := "ДЕЙСТВИЕ: CALENDAR[создать_задачу | название: " + title + " | дата: 2025-12-01 | время: 10:00]"
	d := ParseDecision(raw)
	if d.Kind != KindToolCall {
		t.Fatalf("kind = %v, want KindToolCall", d.Kind)
	}
	if d.Tool != ToolCalendar || !strings.Contains(d.RawArgs, title) {
		t.Errorf("tool = %q, args = %q", d.Tool, d.RawArgs)
	}
}

func TestParseScanWindowRuneLimit(t *testing.T) {
	// Same shape but past 300 runes: the window still cuts it off.
	title := strings.Repeat("я", 260)
	raw := "CALENDAR[создать_задачу | название: " + title + " | дата: 2025-12-01 | время: 10:00]"
	d := ParseDecision(raw)
	if d.Kind != KindUnclassified {
		t.Fatalf("kind = %v, want KindUnclassified past the rune window", d.Kind)
	}
}

func TestParseFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain text",
			raw:  "  Просто текст ответа.  ",
			want: "Просто текст ответа.",
		},
		{
			name: "marker labels stripped",
			raw:  "ДУМАЮ: надо ответить\nдействие: ничего\nACTION: none",
			want: "надо ответить\nничего\nnone",
		},
		{
			name: "inline answer marker same line",
			raw:  "ОТВЕТ: всё хорошо",
			want: "всё хорошо",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDecision(tt.raw)
			if d.Kind != KindUnclassified {
				t.Fatalf("kind = %v, want KindUnclassified", d.Kind)
			}
			if d.Text != tt.want {
				t.Errorf("text = %q, want %q", d.Text, tt.want)
			}
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	raw := "ДЕЙСТВИЕ: WEBSEARCH[запрос: golang]"
	first := ParseDecision(raw)
	second := ParseDecision(raw)
	if first != second {
		t.Errorf("parse not deterministic: %+v vs %+v", first, second)
	}
}
