package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/papers"
	"github.com/paperchat/paperchat/internal/utils"
)

const (
	NumRelevantChunks   = 4    // chunks fed to the model as grounding context
	SimilarityThreshold = 0.45 // minimum cosine similarity for a chunk to count
	chunkSize           = 1800 // characters per indexed chunk
	chunkOverlap        = 200  // characters carried between adjacent chunks

	answerCacheTTL     = 5 * time.Minute
	answerCacheCleanup = 10 * time.Minute
)

// Embedder turns text into embedding vectors. Satisfied by LLMService.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Summarizer produces an answer grounded on retrieved excerpts. Satisfied by
// LLMService.
type Summarizer interface {
	GenerateGroundedAnswer(ctx context.Context, question, excerpts string) (string, error)
}

type indexedChunk struct {
	source    string // filename the chunk came from
	content   string
	embedding []float32
}

// RAGService owns the lazily built index over the papers directory. The
// index is keyed by the document set it was built from and is rebuilt, under
// a single-rebuild lock, whenever a query observes a different set. Answers
// are additionally cached per (document set, question) for a short TTL;
// that cache is flushed on every rebuild and whenever the directory watcher
// reports a change.
type RAGService struct {
	store      *papers.Store
	embedder   Embedder
	summarizer Summarizer
	logger     *zap.Logger

	mu      sync.Mutex
	indexed papers.DocumentSet
	chunks  []indexedChunk

	answers *gocache.Cache

	// extract is swappable so the index path can be exercised without
	// real PDF fixtures.
	extract func(path string) (string, error)
}

func NewRAGService(store *papers.Store, embedder Embedder, summarizer Summarizer, logger *zap.Logger) *RAGService {
	return &RAGService{
		store:      store,
		embedder:   embedder,
		summarizer: summarizer,
		logger:     logger,
		answers:    gocache.New(answerCacheTTL, answerCacheCleanup),
		extract:    extractPDFText,
	}
}

// MarkDirty drops cached answers. Called by the directory watcher; the index
// itself is revalidated against a fresh snapshot on the next query.
func (s *RAGService) MarkDirty() {
	s.answers.Flush()
}

// Query answers a question from the paper collection. A missing directory or
// an empty one is not an error: a fixed explanatory answer is returned
// instead, without touching the model.
func (s *RAGService) Query(ctx context.Context, question string) (string, error) {
	set, err := s.store.Snapshot()
	if err != nil {
		if errors.Is(err, papers.ErrNoDirectory) {
			return fmt.Sprintf("I could not find the %s directory. Please create it and add your documents.", s.store.Dir()), nil
		}
		return "", err
	}
	if len(set) == 0 {
		return fmt.Sprintf("I could not find any PDF files in the %s directory. Please add your documents.", s.store.Dir()), nil
	}

	if err := s.ensureIndex(ctx, set); err != nil {
		return "", err
	}

	cacheKey := set.Hash() + "|" + question
	if cached, ok := s.answers.Get(cacheKey); ok {
		s.logger.Debug("answer cache hit", zap.String("question", question))
		return cached.(string), nil
	}

	excerpts, err := s.relevantExcerpts(ctx, question)
	if err != nil {
		return "", err
	}

	answer, err := s.summarizer.GenerateGroundedAnswer(ctx, question, excerpts)
	if err != nil {
		return "", err
	}

	s.answers.Set(cacheKey, answer, gocache.DefaultExpiration)
	return answer, nil
}

// ensureIndex rebuilds the chunk index iff the current document set differs
// from the one last indexed. The mutex keeps a single rebuild in flight;
// concurrent queries wait rather than racing a half-built index.
func (s *RAGService) ensureIndex(ctx context.Context, set papers.DocumentSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set.Equal(s.indexed) {
		return nil
	}

	s.logger.Info("rebuilding paper index",
		zap.Int("files", len(set)),
		zap.String("docset", set.Hash()),
	)

	var chunks []indexedChunk
	for _, name := range set {
		text, err := s.extract(s.store.Path(name))
		if err != nil {
			// One unreadable file should not take the whole collection
			// offline; skip it and index the rest.
			s.logger.Warn("skipping unreadable pdf", zap.String("file", name), zap.Error(err))
			continue
		}

		for _, piece := range splitIntoChunks(text, chunkSize, chunkOverlap) {
			embedding, err := s.embedder.EmbedDocument(ctx, piece)
			if err != nil {
				return fmt.Errorf("failed to embed chunk of %s: %w", name, err)
			}
			chunks = append(chunks, indexedChunk{source: name, content: piece, embedding: embedding})
		}
	}

	s.indexed = set
	s.chunks = chunks
	s.answers.Flush()

	s.logger.Info("paper index rebuilt", zap.Int("chunks", len(chunks)))
	return nil
}

type scoredChunk struct {
	chunk      indexedChunk
	similarity float32
}

// relevantExcerpts embeds the question and returns the top chunks above the
// similarity threshold, formatted for the grounding prompt.
func (s *RAGService) relevantExcerpts(ctx context.Context, question string) (string, error) {
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	s.mu.Lock()
	chunks := s.chunks
	s.mu.Unlock()

	var scored []scoredChunk
	for _, chunk := range chunks {
		similarity, err := utils.CosineSimilarity(queryEmbedding, chunk.embedding)
		if err != nil {
			s.logger.Warn("failed to score chunk", zap.String("file", chunk.source), zap.Error(err))
			continue
		}
		if similarity >= SimilarityThreshold {
			scored = append(scored, scoredChunk{chunk: chunk, similarity: similarity})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})
	if len(scored) > NumRelevantChunks {
		scored = scored[:NumRelevantChunks]
	}

	if len(scored) == 0 {
		return "(no relevant excerpts found)", nil
	}

	var sb strings.Builder
	for _, sc := range scored {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", sc.chunk.source, sc.chunk.content)
	}
	return strings.TrimSpace(sb.String()), nil
}
