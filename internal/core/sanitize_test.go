package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "strips echoed question line",
			input: "Question: foo?\nAnswer text",
			want:  "Answer text",
		},
		{
			name:  "strips references section",
			input: "Body text\n\nReferences\n1. Some citation",
			want:  "Body text",
		},
		{
			name:  "collapses blank line runs",
			input: "A\n\n\n\nB",
			want:  "A\n\nB",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  \n answer \n ",
			want:  "answer",
		},
		{
			name:  "keeps single paragraph breaks",
			input: "First paragraph.\n\nSecond paragraph.",
			want:  "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:  "question line inside body is kept",
			input: "The paper asks Question: foo? and answers it.",
			want:  "The paper asks Question: foo? and answers it.",
		},
		{
			name:  "everything stripped",
			input: "Question: foo?\n\nReferences\n1. Citation",
			want:  "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanAnswer(tt.input))
		})
	}
}

func TestCleanAnswerIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"plain answer",
		"Question: foo?\nAnswer text",
		"Body text\n\nReferences\n1. Some citation",
		"A\n\n\n\nB",
		"Question: a?\nbody\n\n\nmore\n\nReferences\nlist",
	}

	for _, input := range inputs {
		once := CleanAnswer(input)
		assert.Equal(t, once, CleanAnswer(once), "not idempotent for %q", input)
	}
}

func TestEnsureAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"", FallbackAnswer},
		{"   ", FallbackAnswer},
		{"none", FallbackAnswer},
		{"None", FallbackAnswer},
		{"I cannot answer.", FallbackAnswer},
		{"i CANNOT answer.", FallbackAnswer},
		{"A real answer", "A real answer"},
		{"nonetheless it works", "nonetheless it works"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EnsureAnswer(tt.input), "input %q", tt.input)
	}
}
