// Package v1 registers the REST surface for the answer pipeline.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wayfarerhq/wayfarer/ai"
	"github.com/wayfarerhq/wayfarer/internal/profile"
)

type APIV1Service struct {
	AnswerService *AnswerService

	Profile *profile.Profile
}

// NewAPIV1Service wires the v1 services. answer may be nil when the
// pipeline is disabled; the affected endpoints degrade to 503.
func NewAPIV1Service(profile *profile.Profile, answer *ai.Service) *APIV1Service {
	answerService := &AnswerService{}
	if answer != nil {
		answerService.Pipeline = answer
	}

	return &APIV1Service{
		AnswerService: answerService,
		Profile:       profile,
	}
}

// StatusResponse describes the running instance.
type StatusResponse struct {
	Version       string `json:"version"`
	Mode          string `json:"mode"`
	AnswerEnabled bool   `json:"answer_enabled"`
}

// GetStatus reports version, mode and whether the pipeline is live.
func (s *APIV1Service) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, &StatusResponse{
		Version:       s.Profile.Version,
		Mode:          s.Profile.Mode,
		AnswerEnabled: s.AnswerService.Pipeline != nil,
	})
}

// Register mounts all v1 routes on the echo instance.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.GET("/status", s.GetStatus)
	s.AnswerService.Register(group)
}
