// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CalendarOp names a calendar operation classified from the raw expression.
type CalendarOp string

const (
	OpCreateTask  CalendarOp = "create-task"
	OpListTasks   CalendarOp = "list-tasks-in-range"
	OpCurrentDate CalendarOp = "current-date"
	OpAddDays     CalendarOp = "add-days"
	OpTimeline    CalendarOp = "timeline-suggestion"
)

// CalendarArgs are the validated arguments of one calendar operation.
type CalendarArgs struct {
	Op          CalendarOp
	Title       string
	Date        string
	Time        string
	Description string
	Start       string
	End         string
	Days        int
	TaskQuery   string
}

// SearchArgs are the validated arguments of one web search.
type SearchArgs struct {
	Query      string
	MaxResults int
}

// ValidationError reports missing or malformed tool arguments. It is fed
// back to the model as an observation, never raised to the loop.
type ValidationError struct {
	Tool    string
	Op      CalendarOp
	Missing []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Ошибка: отсутствуют обязательные параметры: %s", strings.Join(e.Missing, ", "))
}

var (
	dateValueRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeValueRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
	intValueRe  = regexp.MustCompile(`\d+`)
)

// fieldSynonyms maps canonical field names to the bilingual keys the model
// may use. Adding a tool argument means adding a row here, not new parsing
// code.
var fieldSynonyms = map[string][]string{
	"title":       {"название", "title"},
	"date":        {"дата", "date"},
	"time":        {"время", "time"},
	"description": {"описание", "description"},
	"start":       {"начало", "start"},
	"end":         {"конец", "end"},
	"days":        {"дней", "дни", "days"},
	"query":       {"запрос", "query"},
	"results":     {"результатов", "результаты", "results", "max_results"},
	"task":        {"задача", "задачу", "task"},
}

// calendarOps maps operation keywords to the classified operation.
// Checked in declaration order against the lowered expression.
var calendarOps = []struct {
	keywords []string
	op       CalendarOp
}{
	{[]string{"создать_задачу", "create_task"}, OpCreateTask},
	{[]string{"получить_задачи", "get_tasks"}, OpListTasks},
	{[]string{"add_days"}, OpAddDays},
	{[]string{"timeline", "график"}, OpTimeline},
	{[]string{"текущая_дата", "current_date"}, OpCurrentDate},
}

// ExtractCalendarArgs parses the raw bracketed calendar expression into
// typed arguments.
func ExtractCalendarArgs(raw string) (CalendarArgs, error) {
	inner := innerExpr(raw, "calendar")
	lowered := strings.ToLower(inner)

	op, ok := classifyCalendarOp(lowered, inner)
	if !ok {
		return CalendarArgs{}, &ValidationError{
			Tool:    ToolCalendar,
			Message: fmt.Sprintf("Неизвестная операция календаря: %s", firstSegment(inner)),
		}
	}

	fields := extractFields(inner)
	args := CalendarArgs{Op: op}

	switch op {
	case OpCreateTask:
		args.Title = fields["title"]
		args.Date = fields["date"]
		args.Time = fields["time"]
		args.Description = fields["description"]

		var missing []string
		if args.Title == "" {
			missing = append(missing, "название")
		}
		if !dateValueRe.MatchString(args.Date) {
			args.Date = ""
			missing = append(missing, "дата")
		}
		if !timeValueRe.MatchString(args.Time) {
			args.Time = ""
			missing = append(missing, "время")
		}
		if len(missing) > 0 {
			return CalendarArgs{}, &ValidationError{
				Tool:    ToolCalendar,
				Op:      op,
				Missing: missing,
				Message: fmt.Sprintf(
					"Ошибка: недостаточно информации для создания задачи.\nТребуется: название, дата (YYYY-MM-DD), время (HH:MM)\nОтсутствует: %s\nПолучено: название=%q, дата=%q, время=%q",
					strings.Join(missing, ", "), args.Title, args.Date, args.Time),
			}
		}

	case OpListTasks:
		args.Start = fields["start"]
		args.End = fields["end"]

		var missing []string
		if !dateValueRe.MatchString(args.Start) {
			args.Start = ""
			missing = append(missing, "начало")
		}
		if !dateValueRe.MatchString(args.End) {
			args.End = ""
			missing = append(missing, "конец")
		}
		if len(missing) > 0 {
			return CalendarArgs{}, &ValidationError{
				Tool:    ToolCalendar,
				Op:      op,
				Missing: missing,
				Message: "Ошибка: требуется указать диапазон дат (начало и конец в формате YYYY-MM-DD)",
			}
		}

	case OpAddDays:
		if m := intValueRe.FindString(fields["days"]); m != "" {
			args.Days, _ = strconv.Atoi(m)
		} else if m := intValueRe.FindString(inner); m != "" {
			args.Days, _ = strconv.Atoi(m)
		}

	case OpTimeline:
		args.TaskQuery = fields["task"]
		if args.TaskQuery == "" {
			args.TaskQuery = fields["query"]
		}
		if args.TaskQuery == "" {
			return CalendarArgs{}, &ValidationError{
				Tool:    ToolCalendar,
				Op:      op,
				Missing: []string{"задача"},
				Message: "Требуется описание задачи для предложения графика",
			}
		}

	case OpCurrentDate:
		// No arguments.
	}

	return args, nil
}

// searchDefaultResults is used when the model omits the result count.
const searchDefaultResults = 5

// ExtractWebSearchArgs parses the raw bracketed search expression. The
// query defaults to the whole inner text when no query key is present; the
// result count is clamped to [1, 10].
func ExtractWebSearchArgs(raw string) (SearchArgs, error) {
	inner := innerExpr(raw, "websearch")
	fields := extractFields(inner)

	query := strings.TrimSpace(fields["query"])
	if query == "" {
		query = strings.TrimSpace(inner)
	}
	if query == "" {
		return SearchArgs{}, &ValidationError{
			Tool:    ToolWebSearch,
			Missing: []string{"запрос"},
			Message: "Поисковый запрос не может быть пустым",
		}
	}

	maxResults := searchDefaultResults
	if m := intValueRe.FindString(fields["results"]); m != "" {
		maxResults, _ = strconv.Atoi(m)
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 10 {
		maxResults = 10
	}

	return SearchArgs{Query: query, MaxResults: maxResults}, nil
}

// innerExpr strips the tool prefix and surrounding brackets from a raw
// expression like "CALENDAR[...]", tolerating a bare inner expression too.
func innerExpr(raw, tool string) string {
	s := strings.TrimSpace(raw)
	lowered := asciiLower(s)
	if idx := strings.Index(lowered, tool+"["); idx >= 0 {
		s = s[idx+len(tool)+1:]
		if end := strings.LastIndex(s, "]"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

// extractFields parses the "key: value | key: value" grammar against the
// synonym table. Segments without a colon (operation keywords) are skipped.
// Keys are matched case-insensitively; later duplicates win.
func extractFields(inner string) map[string]string {
	fields := make(map[string]string)
	for _, segment := range strings.Split(inner, "|") {
		key, value, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		for canonical, synonyms := range fieldSynonyms {
			for _, syn := range synonyms {
				if key == syn {
					fields[canonical] = value
				}
			}
		}
	}

	// The search prompt historically allowed ", max_results: N" with a
	// comma separator; accept it when the pipe grammar found no count.
	if fields["results"] == "" {
		if m := resultsCommaRe.FindStringSubmatch(inner); m != nil {
			fields["results"] = m[1]
			if q, ok := fields["query"]; ok {
				fields["query"] = strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(q), m[0])), ",")
			}
		}
	}

	return fields
}

var resultsCommaRe = regexp.MustCompile(`(?i),\s*(?:max_results|результ\p{L}*)\s*:\s*(\d+)`)

// classifyCalendarOp finds the operation keyword. A bare leading token that
// matches nothing known is an unknown operation; an expression with no
// operation token at all defaults to current-date.
func classifyCalendarOp(lowered, inner string) (CalendarOp, bool) {
	for _, entry := range calendarOps {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				return entry.op, true
			}
		}
	}

	first := firstSegment(inner)
	if first != "" && !strings.Contains(first, ":") {
		return "", false
	}
	return OpCurrentDate, true
}

func firstSegment(inner string) string {
	seg, _, _ := strings.Cut(inner, "|")
	return strings.TrimSpace(seg)
}
