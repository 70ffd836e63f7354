package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	t.Run("RecordAnswer", func(t *testing.T) {
		exporter.RecordAnswer(OutcomeGenerated, 800*time.Millisecond)
		exporter.RecordAnswer(OutcomeCacheHit, 5*time.Millisecond)
		exporter.RecordAnswer(OutcomeDegraded, 600*time.Millisecond)

		exporter.AnswerStarted()
		exporter.AnswerFinished()
	})

	t.Run("RecordRetrieval", func(t *testing.T) {
		exporter.RecordRetrieval("vector", 40*time.Millisecond)
		exporter.RecordRetrieval("graph", 25*time.Millisecond)
		exporter.RecordRetrievalFailure("vector", "timeout")
		exporter.RecordRetrievalFailure("graph", "backend_error")
	})

	t.Run("RecordCache", func(t *testing.T) {
		exporter.RecordCacheHit("memory")
		exporter.RecordCacheHit("memory")
		exporter.RecordCacheMiss("memory")
		exporter.RecordCacheEvictions("memory", 3)
	})

	t.Run("RecordLLM", func(t *testing.T) {
		exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 100)
		exporter.RecordLLMTokens("gpt-4o-mini", "completion", 50)
		exporter.RecordLLMLatency("gpt-4o-mini", "openai", 500*time.Millisecond)
	})
}

func TestPrometheusExporterHandler(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordAnswer(OutcomeGenerated, 100*time.Millisecond)
	exporter.RecordRetrieval("vector", 50*time.Millisecond)
	exporter.RecordCacheHit("memory")
	exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 100)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	exporter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "wayfarer_rag_answer_requests_total") {
		t.Error("expected answer_requests_total metric in output")
	}
	if !strings.Contains(body, "wayfarer_rag_retrieval_latency_seconds") {
		t.Error("expected retrieval_latency_seconds metric in output")
	}
	if !strings.Contains(body, "wayfarer_rag_cache_hits_total") {
		t.Error("expected cache_hits_total metric in output")
	}
	if !strings.Contains(body, "wayfarer_rag_llm_tokens_total") {
		t.Error("expected llm_tokens_total metric in output")
	}
}

func TestPrometheusExporterCustomRegistry(t *testing.T) {
	customReg := NewPrometheusExporter(Config{})
	customReg.RecordAnswer(OutcomeGenerated, 50*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	customReg.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func BenchmarkPrometheusExporter(b *testing.B) {
	exporter := NewPrometheusExporter(DefaultConfig())

	b.Run("RecordAnswer", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordAnswer(OutcomeGenerated, 100*time.Millisecond)
		}
	})

	b.Run("RecordRetrieval", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordRetrieval("vector", 50*time.Millisecond)
		}
	})

	b.Run("RecordCache", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordCacheHit("memory")
		}
	})
}
