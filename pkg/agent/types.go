// SPDX-License-Identifier: Apache-2.0

// Package agent implements the bounded reasoning loop that decides, turn by
// turn, whether to answer the user directly or call a tool first.
package agent

// Role classifies a conversation turn.
type Role string

const (
	RoleUser        Role = "user"
	RoleAssistant   Role = "assistant"
	RoleObservation Role = "tool-observation"
)

// Turn is one unit of conversation history. Turns are owned by the caller
// and only read by the loop.
type Turn struct {
	Role    Role
	Content string
}

// Tool names form a closed set. Anything else never reaches dispatch.
const (
	ToolCalendar  = "CALENDAR"
	ToolWebSearch = "WEBSEARCH"
)

// DecisionKind tags the variant of a parsed decision.
type DecisionKind int

const (
	// KindFinalAnswer means the model declared completion.
	KindFinalAnswer DecisionKind = iota

	// KindToolCall means the model requested a tool.
	KindToolCall

	// KindUnclassified means no protocol marker was recognized. Treated
	// as a final answer downstream, never as a tool call.
	KindUnclassified
)

// Decision is the classified output of one reasoning step.
type Decision struct {
	Kind DecisionKind

	// Text is the answer text for KindFinalAnswer and KindUnclassified.
	Text string

	// Tool and RawArgs are set for KindToolCall. RawArgs is the full
	// bracketed expression, e.g. "CALENDAR[текущая_дата]".
	Tool    string
	RawArgs string
}

// ToolInvocation records one dispatched tool call. Appended to the trace,
// never mutated afterwards.
type ToolInvocation struct {
	Tool        string
	RawInput    string
	Observation string
	Succeeded   bool
}
