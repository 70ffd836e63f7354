// Package ai wires the answer pipeline: query embedding, the semantic
// answer cache, dual retrieval, context merging, prompt assembly and
// answer generation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/wayfarerhq/wayfarer/ai/cache"
	"github.com/wayfarerhq/wayfarer/ai/llm"
	"github.com/wayfarerhq/wayfarer/ai/merge"
	"github.com/wayfarerhq/wayfarer/ai/metrics"
	"github.com/wayfarerhq/wayfarer/ai/prompt"
	"github.com/wayfarerhq/wayfarer/ai/retrieval"
	"github.com/wayfarerhq/wayfarer/store"
)

// ErrAnswerFailed marks a failed generation call, the only error that fails
// a request outright. Every upstream stage degrades instead of failing.
var ErrAnswerFailed = errors.New("answer generation failed")

// Answer is the outcome of one query through the pipeline.
type Answer struct {
	// RequestID identifies the pipeline execution that produced this answer.
	// Collapsed concurrent duplicates share one execution and one ID.
	RequestID string `json:"request_id"`
	Query     string `json:"query"`
	Text      string `json:"text"`

	// Outcome is one of cache_hit, generated or degraded.
	Outcome string `json:"outcome"`

	// Similarity is the cache match score, set on cache hits only.
	Similarity float32 `json:"similarity,omitempty"`

	// Fragments counts the context fragments behind the prompt.
	Fragments int `json:"fragments"`

	// Stats carries token usage from generation, nil on cache hits.
	Stats *llm.CallStats `json:"stats,omitempty"`
}

// Service runs the full answer pipeline. Collaborators are exported so
// callers and tests can assemble partial pipelines.
type Service struct {
	Embedding   EmbeddingService
	LLM         llm.Service
	Cache       *cache.SemanticCache
	Coordinator *retrieval.Coordinator
	Merger      *merge.Merger
	Assembler   *prompt.Assembler
	Metrics     *metrics.PrometheusExporter

	cacheBackend string
	llmModel     string
	llmProvider  string
	group        singleflight.Group
}

// NewService builds the pipeline from configuration. The store backs both
// retrieval branches and, with the db cache driver, the cache as well.
func NewService(cfg *Config, st *store.Store) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("answer service disabled: no LLM API key configured")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI config: %w", err)
	}

	embedding, err := NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}

	llmService, err := llm.NewService((*llm.Config)(&cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create LLM service: %w", err)
	}

	backend, err := newCacheBackend(&cfg.Cache, st)
	if err != nil {
		return nil, err
	}
	semanticCache := cache.New(cache.Config{
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		TTL:                 cfg.Cache.TTL,
		MaxEntries:          cfg.Cache.MaxEntries,
	}, backend)

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	coordinator := retrieval.NewCoordinator(
		timedVectorSource{retrieval.NewVectorRetriever(st, cfg.Retrieval.VectorTopK), exporter},
		timedGraphSource{retrieval.NewGraphRetriever(st, cfg.Retrieval.GraphMaxFacts, cfg.Retrieval.GraphMaxHops), exporter},
		cfg.Retrieval.Timeout,
	)

	merger := merge.NewMerger(merge.Config{
		MaxChars:           cfg.Merge.MaxChars,
		MaxVectorFragments: cfg.Merge.MaxVectorFragments,
		MaxGraphFacts:      cfg.Merge.MaxGraphFacts,
	})

	slog.Info("answer pipeline ready",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"embedding_model", cfg.Embedding.Model,
		"cache_driver", cacheBackendName(cfg.Cache.Driver),
		"cache_threshold", cfg.Cache.SimilarityThreshold,
		"retrieval_timeout", cfg.Retrieval.Timeout,
	)

	return &Service{
		Embedding:    embedding,
		LLM:          llmService,
		Cache:        semanticCache,
		Coordinator:  coordinator,
		Merger:       merger,
		Assembler:    prompt.NewAssembler(),
		Metrics:      exporter,
		cacheBackend: cacheBackendName(cfg.Cache.Driver),
		llmModel:     cfg.LLM.Model,
		llmProvider:  cfg.LLM.Provider,
	}, nil
}

func cacheBackendName(driver string) string {
	if driver == "" {
		return "memory"
	}
	return driver
}

func newCacheBackend(cfg *CacheConfig, st *store.Store) (cache.Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		return cache.NewMemoryBackend(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return cache.NewRedisBackend(client, cfg.TTL), nil
	case "db":
		return cache.NewStoreBackend(st), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// Answer runs one query through the pipeline. Concurrent identical queries
// collapse into a single execution that runs under the first caller's
// context; every caller receives the same answer.
//
// The only fatal failure is generation itself, reported as ErrAnswerFailed.
// A missing embedding, a cache outage or losing both retrieval branches all
// degrade the answer instead of failing the request.
func (s *Service) Answer(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty query")
	}

	if s.Metrics != nil {
		s.Metrics.AnswerStarted()
		defer s.Metrics.AnswerFinished()
	}

	v, err, shared := s.group.Do(query, func() (interface{}, error) {
		return s.answerOnce(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	answer := v.(Answer)
	if shared {
		slog.Debug("answer shared across concurrent identical queries",
			"request_id", answer.RequestID)
	}
	return &answer, nil
}

func (s *Service) answerOnce(ctx context.Context, query string) (Answer, error) {
	requestID := shortuuid.New()
	start := time.Now()

	embedding, err := s.Embedding.Embed(ctx, query)
	if err != nil {
		// Not fatal: the cache degrades to a miss and the graph branch still
		// anchors on the query text.
		slog.Warn("query embedding failed, continuing without it",
			"request_id", requestID,
			"error", err,
		)
		embedding = nil
	}

	if hit := s.Cache.Lookup(ctx, query, embedding); hit != nil {
		s.recordCache(true)
		s.recordAnswer(metrics.OutcomeCacheHit, start)
		slog.Info("answer served from cache",
			"request_id", requestID,
			"similarity", hit.Similarity,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return Answer{
			RequestID:  requestID,
			Query:      query,
			Text:       hit.Answer,
			Outcome:    metrics.OutcomeCacheHit,
			Similarity: hit.Similarity,
		}, nil
	}
	s.recordCache(false)

	vector, graph, err := s.Coordinator.Retrieve(ctx, query, embedding)
	if err != nil && !errors.Is(err, retrieval.ErrBothRetrievalsFailed) {
		return Answer{}, err
	}
	// Losing both branches falls through: the prompt degrades to the bare
	// query instead of failing the request.
	s.recordRetrievalFailures(vector, graph)

	fragments := s.Merger.Merge(vector, graph)

	userPrompt, err := s.Assembler.Assemble(query, fragments)
	if err != nil {
		return Answer{}, fmt.Errorf("assemble prompt: %w", err)
	}

	text, stats, err := s.LLM.Chat(ctx, []llm.Message{
		llm.SystemPrompt(s.Assembler.SystemPrompt()),
		llm.UserMessage(userPrompt),
	})
	if err != nil {
		s.recordAnswer(metrics.OutcomeError, start)
		return Answer{}, fmt.Errorf("%w: %v", ErrAnswerFailed, err)
	}
	s.recordLLM(stats)

	// Only finalized answers are cached. Store is a no-op without an
	// embedding, and a failed write is logged inside and swallowed.
	s.Cache.Store(ctx, query, text, embedding)

	outcome := metrics.OutcomeGenerated
	if len(fragments) == 0 {
		outcome = metrics.OutcomeDegraded
	}
	s.recordAnswer(outcome, start)

	slog.Info("answer generated",
		"request_id", requestID,
		"outcome", outcome,
		"fragments", len(fragments),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return Answer{
		RequestID: requestID,
		Query:     query,
		Text:      text,
		Outcome:   outcome,
		Fragments: len(fragments),
		Stats:     stats,
	}, nil
}

// Warmup pings the LLM provider so the first real request skips connection
// setup. Safe to run on its own goroutine.
func (s *Service) Warmup(ctx context.Context) {
	s.LLM.Warmup(ctx)
}

// CacheStats exposes semantic cache counters for diagnostics.
func (s *Service) CacheStats() cache.Stats {
	return s.Cache.GetStats()
}

// RunCachePurge compacts expired cache entries every interval until ctx is
// canceled. Run it on its own goroutine.
func (s *Service) RunCachePurge(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Cache.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				if s.Metrics != nil {
					s.Metrics.RecordCacheEvictions(s.cacheBackend, int64(n))
				}
				slog.Debug("cache purge removed expired entries", "count", n)
			}
		}
	}
}

func (s *Service) recordAnswer(outcome string, start time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.RecordAnswer(outcome, time.Since(start))
}

func (s *Service) recordCache(hit bool) {
	if s.Metrics == nil {
		return
	}
	if hit {
		s.Metrics.RecordCacheHit(s.cacheBackend)
		return
	}
	s.Metrics.RecordCacheMiss(s.cacheBackend)
}

func (s *Service) recordRetrievalFailures(results ...retrieval.Result) {
	if s.Metrics == nil {
		return
	}
	for _, r := range results {
		if r.Failure != nil {
			s.Metrics.RecordRetrievalFailure(string(r.Failure.Source), string(r.Failure.Kind))
		}
	}
}

func (s *Service) recordLLM(stats *llm.CallStats) {
	if s.Metrics == nil || stats == nil {
		return
	}
	s.Metrics.RecordLLMTokens(s.llmModel, "prompt", stats.PromptTokens)
	s.Metrics.RecordLLMTokens(s.llmModel, "completion", stats.CompletionTokens)
	s.Metrics.RecordLLMLatency(s.llmModel, s.llmProvider, time.Duration(stats.TotalDurationMs)*time.Millisecond)
}

// timedVectorSource reports branch latency to the exporter. Completion is
// recorded even when the coordinator has already stopped waiting.
type timedVectorSource struct {
	inner    retrieval.VectorSource
	exporter *metrics.PrometheusExporter
}

func (t timedVectorSource) Retrieve(ctx context.Context, embedding []float32) ([]retrieval.Document, error) {
	start := time.Now()
	documents, err := t.inner.Retrieve(ctx, embedding)
	t.exporter.RecordRetrieval(string(retrieval.SourceVector), time.Since(start))
	return documents, err
}

type timedGraphSource struct {
	inner    retrieval.GraphSource
	exporter *metrics.PrometheusExporter
}

func (t timedGraphSource) Retrieve(ctx context.Context, query string) ([]retrieval.Fact, error) {
	start := time.Now()
	facts, err := t.inner.Retrieve(ctx, query)
	t.exporter.RecordRetrieval(string(retrieval.SourceGraph), time.Since(start))
	return facts, err
}
