// Package chatlog persists one JSON record per answered question to an
// append-only, date-partitioned log. Partitions are laid out as
// <root>/YYYY/MM/DD.jsonl and are never rewritten, only appended.
//
// Timestamps are UTC throughout. Each append is a single O_APPEND write of
// one line; under concurrent requests in a single process that is relied on
// for line atomicity rather than explicit locking.
package chatlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Record is the immutable answer record appended to the log and returned to
// the caller. Source is "rag_api" when the document-query tool was invoked
// while answering and "conversational_api" otherwise.
type Record struct {
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Source    string `json:"source"`
}

const (
	SourceRAG            = "rag_api"
	SourceConversational = "conversational_api"
)

// NewRecord stamps a record with the current UTC time.
func NewRecord(sessionID, question, answer, source string) Record {
	return Record{
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Question:  question,
		Answer:    answer,
		Source:    source,
	}
}

type Logger struct {
	root   string
	logger *zap.Logger
}

func NewLogger(root string, logger *zap.Logger) *Logger {
	return &Logger{root: root, logger: logger}
}

// partitionPath derives the target file for a given date, e.g.
// logs/2026/08/25.jsonl.
func (l *Logger) partitionPath(t time.Time) string {
	return filepath.Join(l.root, t.Format("2006"), t.Format("01"), t.Format("02")+".jsonl")
}

// Append writes the record as one JSON line to today's partition, creating
// the partition directory on first write of the day. Failures are logged
// and swallowed: persisting the answer record must never fail the request
// that produced it.
func (l *Logger) Append(rec Record) {
	if err := l.append(rec); err != nil {
		l.logger.Error("failed to append answer record", zap.Error(err))
	}
}

func (l *Logger) append(rec Record) error {
	path := l.partitionPath(time.Now().UTC())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log partition directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log partition: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // keep non-ASCII and markup literal in the log
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode answer record: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write answer record: %w", err)
	}
	return nil
}

// ReadAll returns every persisted record across all partitions, most recent
// partition first. Records inside a partition keep their append order.
// Malformed lines are skipped silently.
func (l *Logger) ReadAll() ([]Record, error) {
	var partitions []string
	err := filepath.WalkDir(l.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
			partitions = append(partitions, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no log yet
		}
		return nil, fmt.Errorf("failed to walk log directory: %w", err)
	}

	// Paths embed zero-padded year/month/day, so lexicographic order is
	// chronological. Reverse for newest-first.
	sort.Sort(sort.Reverse(sort.StringSlice(partitions)))

	var records []Record
	for _, path := range partitions {
		recs, err := l.readPartition(path)
		if err != nil {
			l.logger.Warn("skipping unreadable log partition", zap.String("path", path), zap.Error(err))
			continue
		}
		records = append(records, recs...)
	}
	return records, nil
}

func (l *Logger) readPartition(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // malformed line, skip
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
