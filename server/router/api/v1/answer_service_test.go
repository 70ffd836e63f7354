package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/wayfarer/ai"
	"github.com/wayfarerhq/wayfarer/internal/profile"
)

type stubAnswerer struct {
	answer *ai.Answer
	err    error
}

func (s *stubAnswerer) Answer(context.Context, string) (*ai.Answer, error) {
	return s.answer, s.err
}

func newTestRouter(pipeline Answerer) *echo.Echo {
	e := echo.New()
	svc := &APIV1Service{
		AnswerService: &AnswerService{Pipeline: pipeline},
		Profile:       &profile.Profile{Mode: "dev", Version: "0.1.0"},
	}
	svc.Register(e)
	return e
}

func postAnswer(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/answer", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateAnswerReturnsAnswer(t *testing.T) {
	pipeline := &stubAnswerer{answer: &ai.Answer{
		RequestID: "req-1",
		Query:     "best time for Kyoto",
		Text:      "Late March for the blossoms.",
		Outcome:   "generated",
		Fragments: 4,
	}}
	e := newTestRouter(pipeline)

	rec := postAnswer(e, `{"query":"best time for Kyoto"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "Late March for the blossoms.", resp.Answer)
	assert.Equal(t, "generated", resp.Outcome)
	assert.Equal(t, 4, resp.Fragments)
}

func TestCreateAnswerRequiresQuery(t *testing.T) {
	e := newTestRouter(&stubAnswerer{})

	for _, body := range []string{`{}`, `{"query":"  "}`} {
		rec := postAnswer(e, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestCreateAnswerMalformedBody(t *testing.T) {
	e := newTestRouter(&stubAnswerer{})

	rec := postAnswer(e, `{"query": 42`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAnswerWithoutPipelineReturns503(t *testing.T) {
	e := newTestRouter(nil)

	rec := postAnswer(e, `{"query":"anything"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateAnswerGenerationFailureReturns502(t *testing.T) {
	pipeline := &stubAnswerer{err: fmt.Errorf("%w: upstream 500", ai.ErrAnswerFailed)}
	e := newTestRouter(pipeline)

	rec := postAnswer(e, `{"query":"two days in Rome"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCreateAnswerUnknownFailureReturns500(t *testing.T) {
	pipeline := &stubAnswerer{err: errors.New("boom")}
	e := newTestRouter(pipeline)

	rec := postAnswer(e, `{"query":"two days in Rome"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetStatus(t *testing.T) {
	e := newTestRouter(&stubAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0.1.0", resp.Version)
	assert.True(t, resp.AnswerEnabled)
}
