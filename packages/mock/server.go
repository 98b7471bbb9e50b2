// Package mock provides a local OpenAI-compatible image-generation server
// for running imgprobe without a live backend.
package mock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/perly6185-lab/imgprobe/packages/openai"
)

// tinyPNG is a 1x1 transparent PNG served when no fixture overrides the
// requested model.
var tinyPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x44, 0x41, 0x54,
	0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00, 0x05,
	0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00,
	0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
}

const maxImages = 4

// Server is a mock image-generation API server.
type Server struct {
	port     int
	delay    time.Duration
	fixtures *FixtureSet
	logger   logrus.FieldLogger
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithFixtures serves per-model fixture overrides
func WithFixtures(fixtures *FixtureSet) Option {
	return func(s *Server) {
		s.fixtures = fixtures
	}
}

// WithLogger sets the request logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		port:   8999,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server's HTTP handler, separated out so tests can use
// httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/images/generations", s.handleGenerations)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.port)
}

// StartWithContext starts the server and shuts it down when ctx is canceled.
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.Addr(),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("port", s.port).Info("mock image API listening")

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	w.Header().Set("X-Request-Id", uuid.NewString())

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error", "")
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		s.writeError(w, http.StatusUnauthorized, "missing bearer token", "invalid_request_error", "missing_api_key")
		return
	}

	var req openai.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request_error", "")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required", "invalid_request_error", "empty_prompt")
		return
	}

	n := req.N
	if n <= 0 {
		n = 1
	}
	if n > maxImages {
		n = maxImages
	}

	image := tinyPNG
	revised := "A detailed rendering of: " + req.Prompt
	if s.fixtures != nil {
		if fixture := s.fixtures.Get(req.Model); fixture != nil {
			if data, err := fixture.ImageBytes(); err == nil {
				image = data
			}
			if fixture.RevisedPrompt != "" {
				revised = fixture.RevisedPrompt
			}
		}
	}

	encoded := base64.StdEncoding.EncodeToString(image)

	data := make([]openai.ImageData, 0, n)
	for i := 0; i < n; i++ {
		item := openai.ImageData{RevisedPrompt: &revised}
		if req.ResponseFormat == openai.FormatB64JSON {
			b64 := encoded
			item.B64JSON = &b64
		} else {
			url := "data:image/png;base64," + encoded
			item.URL = &url
		}
		data = append(data, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.ImageResponse{
		Created: time.Now().Unix(),
		Data:    data,
	})

	s.logger.WithFields(logrus.Fields{
		"model":    req.Model,
		"n":        n,
		"format":   req.ResponseFormat,
		"duration": time.Since(start).String(),
	}).Debug("served generation request")
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, errType, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"message": message,
			"type":    errType,
			"code":    code,
		},
	})

	s.logger.WithFields(logrus.Fields{
		"status":  status,
		"message": message,
	}).Debug("rejected generation request")
}
