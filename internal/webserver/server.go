package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/appstate"
	"github.com/ichi0g0y/luckydraw/internal/dispatcher"
	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/sharestore"
	"github.com/ichi0g0y/luckydraw/internal/version"
	"go.uber.org/zap"
)

// BlobOpener serves stored blobs.
type BlobOpener interface {
	Open(key string) ([]byte, string, error)
}

// Server bundles the handlers and what they drive.
type Server struct {
	store        *appstate.Store
	serializer   *share.Serializer
	resolver     *share.Resolver
	dispatcher   *dispatcher.Dispatcher
	client       *sharestore.Client
	blobs        BlobOpener
	hub          *WSHub
	shareBaseURL string
	appScheme    string

	httpServer *http.Server
}

// Config holds the collaborators of a Server.
type Config struct {
	Store        *appstate.Store
	Serializer   *share.Serializer
	Resolver     *share.Resolver
	Dispatcher   *dispatcher.Dispatcher
	Client       *sharestore.Client
	Blobs        BlobOpener
	Hub          *WSHub
	ShareBaseURL string
	AppScheme    string
}

func NewServer(cfg Config) *Server {
	hub := cfg.Hub
	if hub == nil {
		hub = NewWSHub()
	}
	return &Server{
		store:        cfg.Store,
		serializer:   cfg.Serializer,
		resolver:     cfg.Resolver,
		dispatcher:   cfg.Dispatcher,
		client:       cfg.Client,
		blobs:        cfg.Blobs,
		hub:          hub,
		shareBaseURL: cfg.ShareBaseURL,
		appScheme:    cfg.AppScheme,
	}
}

// corsMiddleware adds CORS headers to HTTP handlers
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 共有
	mux.HandleFunc("/api/shares", corsMiddleware(s.handleCreateShare))
	mux.HandleFunc("/api/shares/result", corsMiddleware(s.handleCreateResultShare))
	mux.HandleFunc("/api/shares/{id}", corsMiddleware(s.handleGetShare))
	mux.HandleFunc("/api/shares/{id}/qr", corsMiddleware(s.handleShareQR))
	mux.HandleFunc("/api/links", corsMiddleware(s.handleLinkEvent))
	mux.HandleFunc("/s/{id}", s.handleWebLaunch)

	// アプリ状態
	mux.HandleFunc("/api/state", corsMiddleware(s.handleState))
	mux.HandleFunc("/api/config/{type}", corsMiddleware(s.handleConfig))
	mux.HandleFunc("/api/config/{type}/options", corsMiddleware(s.handleAddOption))
	mux.HandleFunc("/api/config/{type}/options/{optionId}", corsMiddleware(s.handleOption))
	mux.HandleFunc("/api/theme", corsMiddleware(s.handleTheme))
	mux.HandleFunc("/api/screen", corsMiddleware(s.handleScreen))
	mux.HandleFunc("/api/draw/{type}", corsMiddleware(s.handleDraw))
	mux.HandleFunc("/api/poke/reset", corsMiddleware(s.handlePokeReset))

	mux.HandleFunc("/blobs/", s.handleBlob)
	mux.HandleFunc("/ws", s.hub.handleWS)
	mux.HandleFunc("/status", s.handleStatus)

	// /?share=<id> もここで処理する（最後に登録）
	mux.HandleFunc("/", s.handleRoot)

	return mux
}

// Run starts the hub and the HTTP server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context, port int) error {
	unsubscribe := s.store.Subscribe(s.hub.PublishState)
	defer unsubscribe()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer func() {
		stopHub()
		<-s.hub.Done()
	}()
	go s.hub.Run(hubCtx)

	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting web server", zap.String("address", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Failed to start web server", zap.Error(err))
			return fmt.Errorf("failed to start web server on port %d: %w", port, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.Shutdown()
	return nil
}

// Shutdown gracefully shuts down the web server
func (s *Server) Shutdown() {
	if s.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown web server gracefully", zap.Error(err))
	} else {
		logger.Info("Web server shutdown complete")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"version": version.String(),
	}
	// 統計が取れなくてもステータス自体は返す
	if stats, err := localdb.GetBlobStats(); err != nil {
		logger.Warn("Failed to get blob stats", zap.Error(err))
	} else {
		body["blobs"] = stats
	}
	writeJSON(w, http.StatusOK, body)
}

// handleRoot は /?share=<id> のWeb起動を処理する
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Has("share") {
		s.launchWeb(w, r)
		return
	}
	s.handleStatus(w, r)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
