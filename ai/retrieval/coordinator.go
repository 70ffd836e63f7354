package retrieval

import (
	"context"
	"log/slog"
	"time"
)

// VectorSource is the vector branch of the dual retrieval.
type VectorSource interface {
	Retrieve(ctx context.Context, embedding []float32) ([]Document, error)
}

// GraphSource is the graph branch of the dual retrieval.
type GraphSource interface {
	Retrieve(ctx context.Context, query string) ([]Fact, error)
}

// Coordinator launches both branches concurrently and gathers whatever each
// delivers within its own deadline. One failed branch never sinks the other;
// the request proceeds with whatever arrived.
type Coordinator struct {
	vector  VectorSource
	graph   GraphSource
	timeout time.Duration
}

func NewCoordinator(vector VectorSource, graph GraphSource, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{vector: vector, graph: graph, timeout: timeout}
}

// Retrieve runs both branches and always returns results in (vector, graph)
// order. The error is nil unless both branches failed, in which case it is
// ErrBothRetrievalsFailed and the caller should degrade to query-only
// answering. Total latency is bounded by the slower branch, not the sum.
func (c *Coordinator) Retrieve(ctx context.Context, query string, embedding []float32) (Result, Result, error) {
	vectorCh := make(chan Result, 1)
	graphCh := make(chan Result, 1)

	// Both deadlines start now, before either branch launches.
	vectorTimer := time.NewTimer(c.timeout)
	defer vectorTimer.Stop()
	graphTimer := time.NewTimer(c.timeout)
	defer graphTimer.Stop()

	go func() {
		bctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		documents, err := c.vector.Retrieve(bctx, embedding)
		if err != nil {
			vectorCh <- Result{Source: SourceVector, Failure: classifyFailure(SourceVector, err)}
			return
		}
		vectorCh <- Result{Source: SourceVector, Documents: documents}
	}()

	go func() {
		bctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		facts, err := c.graph.Retrieve(bctx, query)
		if err != nil {
			graphCh <- Result{Source: SourceGraph, Failure: classifyFailure(SourceGraph, err)}
			return
		}
		graphCh <- Result{Source: SourceGraph, Facts: facts}
	}()

	vector := await(SourceVector, vectorCh, vectorTimer.C)
	graph := await(SourceGraph, graphCh, graphTimer.C)

	if !vector.OK() {
		slog.Warn("vector retrieval failed",
			"kind", vector.Failure.Kind,
			"error", vector.Failure.Err,
		)
	}
	if !graph.OK() {
		slog.Warn("graph retrieval failed",
			"kind", graph.Failure.Kind,
			"error", graph.Failure.Err,
		)
	}

	if !vector.OK() && !graph.OK() {
		return vector, graph, ErrBothRetrievalsFailed
	}
	return vector, graph, nil
}

// await takes the branch result if it lands before the deadline; afterwards
// the branch is marked timed out and anything it still delivers is left
// unread in the buffered channel.
func await(source Source, ch <-chan Result, deadline <-chan time.Time) Result {
	select {
	case result := <-ch:
		return result
	case <-deadline:
		return Result{
			Source:  source,
			Failure: &Failure{Source: source, Kind: FailureTimeout, Err: context.DeadlineExceeded},
		}
	}
}
