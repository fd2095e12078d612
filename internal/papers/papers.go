// Package papers locates the local PDF collection and reports which files
// are currently present. The set of filenames is the staleness key for the
// RAG index: an index built from one set is valid only while the directory
// still holds exactly that set.
package papers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentSet is the sorted list of PDF filenames present in the papers
// directory at snapshot time.
type DocumentSet []string

// Equal reports whether two snapshots contain exactly the same filenames.
// Set equality, not just count: a swap of one file for another invalidates
// the index too.
func (ds DocumentSet) Equal(other DocumentSet) bool {
	if len(ds) != len(other) {
		return false
	}
	for i := range ds {
		if ds[i] != other[i] {
			return false
		}
	}
	return true
}

// Hash returns a stable digest of the set, used as a cache key component.
func (ds DocumentSet) Hash() string {
	h := sha256.New()
	for _, name := range ds {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Store resolves the papers directory on the local filesystem.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// ErrNoDirectory is returned by Snapshot when the papers directory does not
// exist. Callers treat it as a normal condition, not a failure.
var ErrNoDirectory = fmt.Errorf("papers directory does not exist")

// Snapshot lists the PDF files currently in the papers directory, sorted by
// name. Returns ErrNoDirectory if the directory is absent and an empty set
// (nil error) if it exists but holds no PDFs.
func (s *Store) Snapshot() (DocumentSet, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDirectory
		}
		return nil, fmt.Errorf("failed to read papers directory: %w", err)
	}

	var set DocumentSet
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			set = append(set, entry.Name())
		}
	}
	sort.Strings(set)
	return set, nil
}

// Path returns the absolute path of a file inside the papers directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}
