// Package search builds and queries the weighted full-text address index.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/helpers/utils"
	"github.com/KonghaYao/text2location/internal/metrics"
	"github.com/KonghaYao/text2location/internal/normalizer"
)

// DefaultLimit result count used when a caller passes limit <= 0.
const DefaultLimit = 10

var strategyKey = []byte("text2location.strategy")

// State index lifecycle.
type State int32

const (
	StateCreated State = iota
	StateIndexing
	StateCommitted
	StateQueryable
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateIndexing:
		return "indexing"
	case StateCommitted:
		return "committed"
	case StateQueryable:
		return "queryable"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Options configure a SearchIndex. Path empty means an in-memory index.
type Options struct {
	Path       string
	Strategy   Strategy
	Tokenizer  normalizer.Tokenizer
	Similarity *Similarity
	Logger     *zap.Logger
}

// SearchIndex single-writer, many-reader address index.
//
// Documents added with Add are staged in a pending batch and stay invisible
// until CommitAndReload publishes them. Readers never take the writer lock.
type SearchIndex struct {
	schema     *Schema
	ranker     Ranker
	analyzer   *normalizer.Analyzer
	queries    *normalizer.QueryNormalizer
	extractor  *ResultExtractor
	similarity Similarity
	engine     bleve.Index
	logger     *zap.Logger

	mu      sync.Mutex // guards pending and closed, serializes Add and CommitAndReload
	pending *bleve.Batch
	closed  bool

	weights   atomic.Pointer[FieldWeights]
	state     atomic.Int32
	queryable atomic.Bool
}

// New creates an index with DefaultWeights.
func New(opts Options) (*SearchIndex, error) {
	return NewWithWeights(DefaultWeights(), opts)
}

// NewWithWeights creates an index with explicit level weights. An existing
// durable index at opts.Path is opened instead of created; if it already
// holds documents it is immediately queryable.
func NewWithWeights(w FieldWeights, opts Options) (*SearchIndex, error) {
	if err := w.Validate(); err != nil {
		return nil, InitError("invalid weights", err)
	}
	if opts.Tokenizer == nil {
		return nil, InitError("tokenizer is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyPerField
	}
	similarity := DefaultSimilarity()
	if opts.Similarity != nil {
		similarity = *opts.Similarity
	}

	analyzer, err := normalizer.NewAnalyzer(opts.Tokenizer)
	if err != nil {
		return nil, InitError("create analyzer", err)
	}

	schema := NewSchema(true)
	engine, strategy, err := openEngine(schema, opts.Path, strategy, logger)
	if err != nil {
		return nil, err
	}

	ranker, err := NewRanker(strategy, schema)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}

	si := &SearchIndex{
		schema:     schema,
		ranker:     ranker,
		analyzer:   analyzer,
		queries:    normalizer.NewQueryNormalizer(analyzer),
		extractor:  NewResultExtractor(),
		similarity: similarity,
		engine:     engine,
		logger:     logger,
	}
	si.weights.Store(&w)

	count, err := engine.DocCount()
	if err != nil {
		_ = engine.Close()
		return nil, InitError("count documents", err)
	}
	if count > 0 {
		si.queryable.Store(true)
		si.state.Store(int32(StateQueryable))
		metrics.IndexedDocuments.Set(float64(count))
		logger.Info("Opened existing index",
			zap.String("path", opts.Path),
			zap.Uint64("documents", count),
			zap.String("strategy", string(strategy)))
	}
	return si, nil
}

func openEngine(schema *Schema, path string, strategy Strategy, logger *zap.Logger) (bleve.Index, Strategy, error) {
	im, err := schema.IndexMapping()
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		engine, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, "", InitError("create in-memory index", err)
		}
		return engine, strategy, nil
	}

	engine, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		engine, err = bleve.New(path, im)
		if err != nil {
			return nil, "", InitError("create index at "+path, err)
		}
		if err := engine.SetInternal(strategyKey, []byte(strategy)); err != nil {
			_ = engine.Close()
			return nil, "", InitError("store strategy", err)
		}
		return engine, strategy, nil
	}
	if err != nil {
		return nil, "", InitError("open index at "+path, err)
	}

	stored, err := engine.GetInternal(strategyKey)
	if err != nil {
		_ = engine.Close()
		return nil, "", InitError("read strategy", err)
	}
	if len(stored) > 0 && Strategy(stored) != strategy {
		logger.Warn("Index was built with another strategy, using the stored one",
			zap.String("path", path),
			zap.String("configured", string(strategy)),
			zap.String("stored", string(stored)))
		strategy = Strategy(stored)
	}
	return engine, strategy, nil
}

// Add analyzes and stages docs as one batch. Any invalid document rejects the
// whole batch and leaves state and pending documents untouched.
func (si *SearchIndex) Add(docs []models.ResolvedAddress) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	prev := si.state.Load()
	si.state.Store(int32(StateIndexing))
	reject := func(err *Error) error {
		si.state.Store(prev)
		return err
	}

	w := *si.weights.Load()
	batch := si.engine.NewBatch()
	for i, doc := range docs {
		if err := validateDocument(doc); err != nil {
			return reject(IndexError(fmt.Sprintf("document %d rejected", i), err))
		}
		var levels [4][]string
		for j, v := range doc.Levels() {
			levels[j] = si.analyzer.Analyze(v)
		}
		if err := batch.Index(utils.NewID(), si.ranker.Document(doc, levels, w)); err != nil {
			return reject(IndexError(fmt.Sprintf("document %d rejected", i), err))
		}
	}

	if si.pending == nil {
		si.pending = batch
	} else {
		si.pending.Merge(batch)
	}
	si.state.Store(int32(StateCommitted))
	return nil
}

func validateDocument(doc models.ResolvedAddress) error {
	if strings.TrimSpace(doc.AddressCode) == "" {
		return fieldError(ErrIndex, string(FieldAddressCode), "address code is empty")
	}
	for i, v := range doc.Levels() {
		if !utf8.ValidString(v) {
			return fieldError(ErrIndex, string(LevelFields[i]), "invalid UTF-8")
		}
	}
	if !utf8.ValidString(doc.AddressCode) {
		return fieldError(ErrIndex, string(FieldAddressCode), "invalid UTF-8")
	}
	return nil
}

// CommitAndReload writes every pending document and publishes them to readers.
// On failure the pending batch is kept so the call can be retried.
func (si *SearchIndex) CommitAndReload() error {
	si.mu.Lock()
	defer si.mu.Unlock()

	staged := 0
	if si.pending != nil {
		staged = si.pending.Size()
		if staged > 0 {
			if err := si.engine.Batch(si.pending); err != nil {
				return IndexError("commit pending documents", err)
			}
		}
		si.pending = nil
	}

	si.queryable.Store(true)
	si.state.Store(int32(StateQueryable))

	metrics.ReloadsTotal.Inc()
	count, err := si.engine.DocCount()
	if err == nil {
		metrics.IndexedDocuments.Set(float64(count))
	}
	si.logger.Info("Index reloaded", zap.Int("committed", staged), zap.Uint64("documents", count))
	return nil
}

// SetWeights takes effect on the next query. Under the merged strategy only
// documents added afterwards see the new weights.
func (si *SearchIndex) SetWeights(w FieldWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	si.weights.Store(&w)
	si.logger.Info("Field weights updated",
		zap.Float64("province", w.Province),
		zap.Float64("city", w.City),
		zap.Float64("district", w.District),
		zap.Float64("county", w.County))
	return nil
}

func (si *SearchIndex) Weights() FieldWeights {
	return *si.weights.Load()
}

// Search returns up to limit results ordered by score, then address code.
func (si *SearchIndex) Search(ctx context.Context, q string, limit int) ([]models.AddressResult, error) {
	if !si.queryable.Load() {
		return nil, QueryError("search rejected", ErrNotQueryable)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := si.queries.Terms(q)
	if len(terms) == 0 {
		return nil, QueryError(fmt.Sprintf("query %q has no searchable terms", q), nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, QueryError("search interrupted", err)
	}

	req := bleve.NewSearchRequestOptions(si.ranker.Query(terms, *si.weights.Load()), limit, 0, false)
	req.Fields = si.extractor.Fields()
	req.SortBy([]string{"-_score", string(FieldAddressCode)})

	res, err := si.engine.SearchInContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, QueryError("search interrupted", ctxErr)
		}
		return nil, QueryError("search failed", err)
	}

	results := make([]models.AddressResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, si.extractor.Extract(hit))
	}
	return si.Rescore(q, results), nil
}

// Rescore copy of results with Similarity measured against q.
func (si *SearchIndex) Rescore(q string, results []models.AddressResult) []models.AddressResult {
	out := make([]models.AddressResult, len(results))
	for i, r := range results {
		r.Similarity = si.similarity.Score(q, r.MostSpecific())
		out[i] = r
	}
	return out
}

// SearchFirst best match, or nil when nothing matches.
func (si *SearchIndex) SearchFirst(ctx context.Context, q string) (*models.AddressResult, error) {
	results, err := si.Search(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Normalize canonical form of q, as used for cache keys.
func (si *SearchIndex) Normalize(q string) string {
	return si.queries.Normalize(q)
}

// Queryable reports whether at least one reload has published documents.
func (si *SearchIndex) Queryable() bool {
	return si.queryable.Load()
}

func (si *SearchIndex) State() State {
	return State(si.state.Load())
}

func (si *SearchIndex) Strategy() Strategy {
	return si.ranker.Strategy()
}

func (si *SearchIndex) DocCount() (uint64, error) {
	return si.engine.DocCount()
}

// Close releases the engine. Calling it again is a no-op.
func (si *SearchIndex) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()
	if si.closed {
		return nil
	}
	si.closed = true
	si.pending = nil
	return si.engine.Close()
}
