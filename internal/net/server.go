package net

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/protocol"
)

// Dispatcher receives decoded inbound messages and connection
// lifecycle events. Implemented by the handler layer.
type Dispatcher interface {
	Dispatch(s *Session, msg *protocol.Message)
	Disconnected(s *Session)
}

// Server accepts websocket connections and runs a session per socket.
type Server struct {
	cfg        *config.Config
	dispatcher Dispatcher
	log        *zap.Logger
	httpSrv    *http.Server
	upgrader   websocket.Upgrader
}

// NewServer builds the websocket front door. Connections with an Origin
// header outside the allowlist are refused; absent Origin (native
// clients, curl) is allowed.
func NewServer(cfg *config.Config, dispatcher Dispatcher, log *zap.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        log.Named("net"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range cfg.Network.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	s.httpSrv = &http.Server{
		Addr:              cfg.Network.BindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// handleWS upgrades and runs one session. The path is ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade refused", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	sess := NewSession(conn, s.cfg, s.log)
	s.log.Info("session connected",
		zap.String("session", sess.ID),
		zap.String("remote", r.RemoteAddr))
	go sess.writePump()
	sess.readPump(s.dispatcher)
	s.log.Info("session closed", zap.String("session", sess.ID))
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", zap.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
