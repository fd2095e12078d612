package core

import (
	"regexp"
	"strings"
)

// FallbackAnswer is substituted whenever sanitization leaves nothing usable,
// so callers always receive a non-empty answer.
const FallbackAnswer = "I could not find an answer in the provided documents."

var (
	// Leading "Question: ..." lines echoed back by the model.
	questionLineRe = regexp.MustCompile(`(?m)^Question:.*\n`)
	// Trailing references block: everything from the first blank-line-delimited
	// "References" heading to the end of the text.
	referencesRe = regexp.MustCompile(`(?s)\n\nReferences.*$`)
	// Runs of blank lines, collapsed to exactly one.
	blankRunRe = regexp.MustCompile(`\n\s*\n`)
)

// CleanAnswer strips model artifacts from a raw answer: echoed question
// lines, a trailing references section, and excess blank lines. It is a pure
// transform and idempotent; empty input yields empty output.
func CleanAnswer(text string) string {
	if text == "" {
		return ""
	}
	text = questionLineRe.ReplaceAllString(text, "")
	text = referencesRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// EnsureAnswer applies the no-answer policy: an empty or known refusal token
// becomes the fixed fallback sentence.
func EnsureAnswer(clean string) string {
	switch strings.ToLower(strings.TrimSpace(clean)) {
	case "", "none", "i cannot answer.":
		return FallbackAnswer
	}
	return clean
}
