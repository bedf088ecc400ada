// Package server exposes the relay's network surface: a websocket message
// channel per client, a health endpoint, a speech synthesis relay, and static
// serving for the bundled front-end. It owns the session registry that binds
// channel identities to their coordinators.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/marcabisamra/SocialAGI/config"
	"github.com/marcabisamra/SocialAGI/observability"
	"github.com/marcabisamra/SocialAGI/soul"
	"github.com/marcabisamra/SocialAGI/tts"
)

// Speaker abstracts the TTS collaborator for testability.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Option configures a Server after config-driven initialization.
type Option func(*Server)

// WithObserver overrides the default no-op observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Server) { s.observer = o }
}

// WithCatalog overrides the default blueprint catalog.
func WithCatalog(c *soul.Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithSpeaker overrides the config-created TTS client.
func WithSpeaker(sp Speaker) Option {
	return func(s *Server) { s.speaker = sp }
}

// Server is the relay's HTTP and websocket front door.
type Server struct {
	cfg      config.ServerConfig
	registry *Registry
	catalog  *soul.Catalog
	gateway  soul.Gateway
	speaker  Speaker
	observer observability.Observer

	blueprint  soul.Blueprint
	stageDelay time.Duration

	router   chi.Router
	upgrader websocket.Upgrader
}

// New creates a Server from configuration and a reasoning gateway. The soul
// blueprint named in the config must exist in the catalog.
func New(cfg *config.Config, gateway soul.Gateway, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:        cfg.Server,
		gateway:    gateway,
		catalog:    soul.DefaultCatalog(),
		observer:   observability.NoOpObserver{},
		stageDelay: cfg.Soul.StageDelay(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	if cfg.TTS.APIKey != "" {
		s.speaker = tts.NewClient(cfg.TTS.APIKey,
			ttsOptions(cfg.TTS)...,
		)
	}

	for _, opt := range opts {
		opt(s)
	}

	bp, err := s.catalog.Get(cfg.Soul.Blueprint)
	if err != nil {
		return nil, err
	}
	s.blueprint = bp
	s.registry = NewRegistry(s.observer)

	s.router = chi.NewRouter()
	s.routes()

	return s, nil
}

func ttsOptions(cfg config.TTSConfig) []tts.Option {
	var opts []tts.Option
	if cfg.BaseURL != "" {
		opts = append(opts, tts.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, tts.WithVoice(cfg.VoiceID), tts.WithModel(cfg.ModelID))
	return opts
}

func (s *Server) routes() {
	r := s.router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/speech", s.handleSpeech)
	r.Get("/ws", s.handleSocket)

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the server's session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type speechRequest struct {
	Text string `json:"text"`
}

// handleSpeech relays text to the TTS collaborator and streams the audio
// back. The API credential stays server-side; the browser never sees it.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if s.speaker == nil {
		respondError(w, http.StatusServiceUnavailable, "speech synthesis is not configured")
		return
	}

	var req speechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := s.speaker.Synthesize(r.Context(), req.Text)
	if err != nil {
		s.observer.OnEvent(r.Context(), observability.Event{
			Type:      EventSpeechError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "server.handleSpeech",
			Data:      map[string]any{"error": err.Error()},
		})

		var statusErr *tts.StatusError
		if errors.As(err, &statusErr) {
			respondError(w, http.StatusBadGateway, statusErr.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// handleSocket upgrades the connection and runs one session for its
// lifetime: eager soul creation on connect, inline dispatch of inbound
// messages, discard on disconnect.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newConn(context.Background(), ws, s.observer)
	defer c.close()

	go c.writeLoop()

	s.registry.OnConnect(c.id, s.blueprint, s.gateway, c,
		soul.WithObserver(s.observer),
		soul.WithStageDelay(s.stageDelay),
	)
	defer s.registry.OnDisconnect(c.id)

	c.readLoop(r.Context(), s.registry)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
