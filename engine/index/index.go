// Package index orchestrates corpus loading, embedding, and vector
// store population. A rebuild is all-or-nothing: any stage failure
// aborts and leaves the previous collection untouched.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aibroker/support-assistant/engine/domain"
	"github.com/aibroker/support-assistant/engine/semantic"
	"github.com/aibroker/support-assistant/pkg/fn"
)

// ErrReloadBusy is returned when a rebuild is already in progress.
// Reloads are single-flight; callers retry later.
var ErrReloadBusy = errors.New("index rebuild already in progress")

// Loader reads the knowledge corpus.
type Loader interface {
	Load() ([]domain.KnowledgeRecord, error)
	Path() string
	Exists() bool
}

// Embedder produces embeddings for corpus texts.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the vector store surface the indexer writes to.
type Store interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	Collection() string
}

// Indexer rebuilds the searchable index from the corpus.
type Indexer struct {
	loader   Loader
	embedder Embedder
	store    Store
	logger   *slog.Logger

	mu sync.Mutex // serializes Rebuild
}

// New creates an Indexer.
func New(loader Loader, embedder Embedder, store Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{loader: loader, embedder: embedder, store: store, logger: logger}
}

// embeddedCorpus pairs the loaded records with their vectors.
type embeddedCorpus struct {
	records    []domain.KnowledgeRecord
	embeddings [][]float32
}

// loadStage loads the corpus and rejects an empty result.
func (ix *Indexer) loadStage() fn.Stage[struct{}, []domain.KnowledgeRecord] {
	return func(_ context.Context, _ struct{}) fn.Result[[]domain.KnowledgeRecord] {
		records, err := ix.loader.Load()
		if err != nil {
			return fn.Err[[]domain.KnowledgeRecord](err)
		}
		if len(records) == 0 {
			return fn.Err[[]domain.KnowledgeRecord](
				fmt.Errorf("%w: %s", domain.ErrEmptyCorpus, ix.loader.Path()))
		}
		return fn.Ok(records)
	}
}

// embedStage embeds every record's deterministic embed text.
func (ix *Indexer) embedStage() fn.Stage[[]domain.KnowledgeRecord, embeddedCorpus] {
	return func(ctx context.Context, records []domain.KnowledgeRecord) fn.Result[embeddedCorpus] {
		texts := fn.Map(records, func(r domain.KnowledgeRecord) string { return r.EmbedText })
		embeddings, err := ix.embedder.EmbedMany(ctx, texts)
		if err != nil {
			return fn.Err[embeddedCorpus](err)
		}
		if len(embeddings) != len(records) {
			return fn.Err[embeddedCorpus](fmt.Errorf("%w: got %d vectors for %d records",
				domain.ErrEmbeddingUnavailable, len(embeddings), len(records)))
		}
		return fn.Ok(embeddedCorpus{records: records, embeddings: embeddings})
	}
}

// storeStage sizes the collection from the first vector and upserts the
// whole batch. EnsureCollection only replaces the collection when the
// dimensionality changed, so a failed upsert leaves the old data as it was.
func (ix *Indexer) storeStage() fn.Stage[embeddedCorpus, int] {
	return func(ctx context.Context, ec embeddedCorpus) fn.Result[int] {
		dims := len(ec.embeddings[0])
		if err := ix.store.EnsureCollection(ctx, dims); err != nil {
			return fn.Err[int](err)
		}

		records := make([]semantic.VectorRecord, len(ec.records))
		for i, rec := range ec.records {
			records[i] = semantic.VectorRecord{
				ID:        PointID(ix.store.Collection(), rec.SourceIndex),
				Embedding: ec.embeddings[i],
				Payload:   rec.Payload(),
			}
		}
		if err := ix.store.Upsert(ctx, records); err != nil {
			return fn.Err[int](err)
		}
		return fn.Ok(len(records))
	}
}

// PointID derives a deterministic point UUID from the collection name
// and the record's source position, so re-indexing overwrites in place.
func PointID(collection string, sourceIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s-%d", collection, sourceIndex))).String()
}

// Rebuild loads, embeds, and stores the whole corpus. Only one rebuild
// may run at a time; a concurrent call fails fast with ErrReloadBusy.
func (ix *Indexer) Rebuild(ctx context.Context) error {
	if !ix.mu.TryLock() {
		return ErrReloadBusy
	}
	defer ix.mu.Unlock()

	start := time.Now()
	ix.logger.Info("index rebuild start", "source", ix.loader.Path())

	pipeline := fn.Then(fn.Then(
		fn.TracedStage("index.load", ix.loadStage()),
		fn.TracedStage("index.embed", ix.embedStage())),
		fn.TracedStage("index.store", ix.storeStage()))

	result := pipeline(ctx, struct{}{})
	if result.IsErr() {
		_, err := result.Unwrap()
		ix.logger.Error("index rebuild failed", "err", err)
		return err
	}

	n, _ := result.Unwrap()
	ix.logger.Info("index rebuild done", "points", n, "duration", time.Since(start))
	return nil
}

// Info describes the corpus backing the index, derived by re-reading
// the source rather than the store.
type Info struct {
	TotalEntries int            `json:"total_entries"`
	Categories   map[string]int `json:"categories"`
	SourceFile   string         `json:"source_file"`
	FileExists   bool           `json:"file_exists"`
}

// Info re-reads the corpus and summarizes it.
func (ix *Indexer) Info() (Info, error) {
	info := Info{
		SourceFile: ix.loader.Path(),
		FileExists: ix.loader.Exists(),
		Categories: map[string]int{},
	}
	records, err := ix.loader.Load()
	if err != nil {
		return info, err
	}
	info.TotalEntries = len(records)
	for _, r := range records {
		info.Categories[r.Category]++
	}
	return info, nil
}
