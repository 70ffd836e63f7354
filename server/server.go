// Package server hosts the HTTP surface: the answer API, health and
// Prometheus metrics, plus the optional Telegram bot.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/wayfarerhq/wayfarer/ai"
	"github.com/wayfarerhq/wayfarer/internal/profile"
	"github.com/wayfarerhq/wayfarer/plugin/telegram"
	apiv1 "github.com/wayfarerhq/wayfarer/server/router/api/v1"
	"github.com/wayfarerhq/wayfarer/store"
)

const (
	// requestsPerSecond caps each client IP on the public API.
	requestsPerSecond = 20

	cachePurgeInterval = time.Hour
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	answer     *ai.Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(requestsPerSecond))))

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	if profile.IsAIEnabled() {
		answer, err := ai.NewService(ai.NewConfigFromProfile(profile), store)
		if err != nil {
			return nil, fmt.Errorf("create answer pipeline: %w", err)
		}
		s.answer = answer
		e.GET("/metrics", echo.WrapHandler(answer.Metrics.GetHandler()))
	} else {
		slog.Info("answer pipeline disabled: no LLM API key configured")
	}

	apiv1.NewAPIV1Service(profile, s.answer).Register(e)

	return s, nil
}

// Start launches the listener and the background runners. It returns
// immediately; lifecycle ends through Shutdown or ctx cancellation.
func (s *Server) Start(ctx context.Context) error {
	if s.answer != nil {
		go func() {
			warmupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			s.answer.Warmup(warmupCtx)
		}()
		go s.answer.RunCachePurge(ctx, cachePurgeInterval)

		if s.Profile.TelegramBotToken != "" {
			go s.runTelegramBot(ctx)
		}
	}

	go func() {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()

	return nil
}

// runTelegramBot keeps the bot best-effort: a bad token or Telegram outage
// never takes the HTTP surface down with it.
func (s *Server) runTelegramBot(ctx context.Context) {
	bot, err := telegram.NewBot(telegram.Config{Token: s.Profile.TelegramBotToken}, s.answer)
	if err != nil {
		slog.Warn("telegram bot disabled", "error", err)
		return
	}
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("telegram bot stopped", "error", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("wayfarer stopped properly")
}
