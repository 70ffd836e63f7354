package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wayfarerhq/wayfarer/ai"
)

// Answerer is the pipeline surface the API needs.
type Answerer interface {
	Answer(ctx context.Context, query string) (*ai.Answer, error)
}

// AnswerService exposes the answer pipeline over REST.
type AnswerService struct {
	// Pipeline is nil when no LLM API key is configured; the endpoint then
	// responds 503.
	Pipeline Answerer
}

// AnswerRequest is the POST /api/v1/answer body.
type AnswerRequest struct {
	Query string `json:"query"`
}

// AnswerResponse is the answer payload returned to clients.
type AnswerResponse struct {
	RequestID   string  `json:"request_id"`
	Query       string  `json:"query"`
	Answer      string  `json:"answer"`
	Outcome     string  `json:"outcome"`
	Similarity  float32 `json:"similarity,omitempty"`
	Fragments   int     `json:"fragments"`
	TotalTokens int     `json:"total_tokens,omitempty"`
}

// Register mounts the answer routes on the given group.
func (s *AnswerService) Register(group *echo.Group) {
	group.POST("/answer", s.CreateAnswer)
}

// CreateAnswer answers a single travel question through the pipeline.
func (s *AnswerService) CreateAnswer(c echo.Context) error {
	if s.Pipeline == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "answer service is not configured")
	}

	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	answer, err := s.Pipeline.Answer(c.Request().Context(), req.Query)
	if err != nil {
		if errors.Is(err, ai.ErrAnswerFailed) {
			return echo.NewHTTPError(http.StatusBadGateway, "answer generation failed").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer query").SetInternal(err)
	}

	resp := &AnswerResponse{
		RequestID:  answer.RequestID,
		Query:      answer.Query,
		Answer:     answer.Text,
		Outcome:    answer.Outcome,
		Similarity: answer.Similarity,
		Fragments:  answer.Fragments,
	}
	if answer.Stats != nil {
		resp.TotalTokens = answer.Stats.TotalTokens
	}
	return c.JSON(http.StatusOK, resp)
}
