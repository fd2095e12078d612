package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText pulls the plain text out of a PDF file.
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

// splitIntoChunks breaks text into overlapping word-boundary chunks of
// roughly size characters. Overlap carries trailing context into the next
// chunk so sentences cut at a boundary stay retrievable.
func splitIntoChunks(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0
	fresh := 0 // words added since the last flush

	for _, w := range words {
		current = append(current, w)
		currentLen += len(w) + 1
		fresh++
		if currentLen < size {
			continue
		}

		chunks = append(chunks, strings.Join(current, " "))
		fresh = 0

		// Carry the tail of the chunk forward as overlap.
		carried := 0
		var tail []string
		for i := len(current) - 1; i >= 0 && carried < overlap; i-- {
			carried += len(current[i]) + 1
			tail = append([]string{current[i]}, tail...)
		}
		current = tail
		currentLen = carried
	}
	if fresh > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
