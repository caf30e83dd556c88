// Package classify assigns a coarse task category to a prompt.
//
// Classification is keyword-based and deterministic: the prompt is matched
// case-insensitively against fixed word lists in priority order (code, then
// math, then creative), and the first hit wins. Prompts that match nothing
// are classified as general. The result is used to bias model selection, so
// a wrong guess costs response quality, never correctness.
package classify

import "strings"

// TaskType is a coarse category of work a prompt asks for.
type TaskType string

// Task categories in match priority order.
const (
	TaskCode     TaskType = "code"
	TaskMath     TaskType = "math"
	TaskCreative TaskType = "creative"
	TaskGeneral  TaskType = "general"
)

// String returns the task type name.
func (t TaskType) String() string {
	return string(t)
}

// Keyword lists per category. Matching is substring-based on the lowercased
// prompt, so multi-word phrases are allowed.
var (
	codeKeywords = []string{
		"code", "function", "debug", "compile", "refactor", "bug",
		"implement", "algorithm", "api", "regex", "sql", "script",
		"stack trace", "unit test", "syntax",
	}

	mathKeywords = []string{
		"math", "calculate", "equation", "integral", "derivative",
		"probability", "solve for", "theorem", "matrix", "statistics",
		"geometry", "algebra",
	}

	creativeKeywords = []string{
		"poem", "story", "song", "lyrics", "fiction", "creative",
		"essay", "novel", "haiku", "screenplay", "character", "plot",
	}
)

// Classify returns the task category for a prompt. It is a pure function:
// identical input always yields identical output, and it never fails.
func Classify(prompt string) TaskType {
	lowered := strings.ToLower(prompt)

	for _, kw := range codeKeywords {
		if strings.Contains(lowered, kw) {
			return TaskCode
		}
	}
	for _, kw := range mathKeywords {
		if strings.Contains(lowered, kw) {
			return TaskMath
		}
	}
	for _, kw := range creativeKeywords {
		if strings.Contains(lowered, kw) {
			return TaskCreative
		}
	}
	return TaskGeneral
}
