// Package retrieval runs the vector and graph search branches that feed
// answer generation. The two branches always launch together; either may
// fail or time out without sinking the other.
package retrieval

import (
	"context"
	"errors"
)

// Source identifies a retrieval branch.
type Source string

const (
	SourceVector Source = "vector"
	SourceGraph  Source = "graph"
)

// FailureKind classifies why a branch produced nothing.
type FailureKind string

const (
	// FailureTimeout means the branch missed its deadline. Whatever it
	// produces afterwards is discarded.
	FailureTimeout FailureKind = "timeout"

	// FailureBackendError means the underlying search failed.
	FailureBackendError FailureKind = "backend_error"

	// FailureMissingEmbedding means the vector branch had no query embedding
	// to search with.
	FailureMissingEmbedding FailureKind = "missing_embedding"
)

// Failure describes a branch that produced no usable result.
type Failure struct {
	Source Source
	Kind   FailureKind
	Err    error
}

// Document is a scored fragment from the vector branch.
type Document struct {
	UID     string
	Name    string
	City    string
	Kind    string
	Summary string
	Score   float32
}

// Fact is a relation from the graph branch, shaped for prompting.
type Fact struct {
	SubjectName   string
	Relation      string
	ObjectName    string
	ObjectSummary string
	Depth         int32
}

// Result is the outcome of one branch: content on success, a Failure
// otherwise. An empty Documents or Facts slice with a nil Failure is a
// successful search that found nothing.
type Result struct {
	Source    Source
	Documents []Document // vector branch only
	Facts     []Fact     // graph branch only
	Failure   *Failure
}

// OK reports whether the branch completed successfully.
func (r Result) OK() bool {
	return r.Failure == nil
}

// ErrMissingEmbedding is returned by the vector branch when no query
// embedding is available.
var ErrMissingEmbedding = errors.New("no query embedding available")

// ErrBothRetrievalsFailed is returned when neither branch produced a result.
// Callers degrade to query-only answering rather than failing the request.
var ErrBothRetrievalsFailed = errors.New("both retrieval branches failed")

func classifyFailure(source Source, err error) *Failure {
	kind := FailureBackendError
	switch {
	case errors.Is(err, ErrMissingEmbedding):
		kind = FailureMissingEmbedding
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = FailureTimeout
	}
	return &Failure{Source: source, Kind: kind, Err: err}
}
