package net

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/protocol"
)

// State is the session's authentication progress. Handlers are gated on
// it so, e.g., input frames from an unauthenticated socket never reach
// game code.
type State int

const (
	StateAnon   State = iota // connected, not authenticated
	StateAuthed              // account resolved, no character selected
	StateInGame              // resident player in an instance
)

// Session is one websocket connection. The read pump and the game loop
// both touch it; fields below the mutex comment are read-pump-private,
// fields in the guarded block are cross-goroutine.
type Session struct {
	ID   string
	conn *websocket.Conn
	log  *zap.Logger

	out       chan []byte
	closeOnce sync.Once
	closed    chan struct{}

	writeTimeout time.Duration

	// Read-pump-private rate limit state.
	authLimiter *rate.Limiter
	lastMsgAt   time.Time
	burstCount  int
	burstMax    int
	burstGap    time.Duration

	mu          sync.Mutex
	state       State
	accountID   int64
	username    string
	token       string
	characterID int64
	playerID    string
	instanceID  string
	vaultOpen   bool
}

// NewSession wraps one accepted connection with its outbound queue and
// rate-limit state.
func NewSession(conn *websocket.Conn, cfg *config.Config, log *zap.Logger) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		conn:         conn,
		out:          make(chan []byte, cfg.Network.OutQueueSize),
		closed:       make(chan struct{}),
		writeTimeout: cfg.Network.WriteTimeout,
		authLimiter: rate.NewLimiter(
			rate.Limit(float64(cfg.RateLimit.AuthPerMinute)/60.0),
			cfg.RateLimit.AuthPerMinute,
		),
		burstMax: cfg.RateLimit.InputBurstMax,
		burstGap: cfg.RateLimit.InputBurstGap,
	}
	s.log = log.With(zap.String("session", s.ID))
	return s
}

// Send encodes and queues one outbound frame. A full queue means the
// client cannot keep up; the connection is dropped rather than letting
// the buffer grow without bound.
func (s *Session) Send(msgType string, data any) {
	frame, err := protocol.Encode(msgType, data)
	if err != nil {
		s.log.Error("encode outbound", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case s.out <- frame:
	case <-s.closed:
	default:
		s.log.Warn("outbound queue full, disconnecting", zap.String("type", msgType))
		s.Close()
	}
}

// Close tears the connection down once. Safe from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// AllowAuth consumes one auth-attempt token.
func (s *Session) AllowAuth() bool {
	return s.authLimiter.Allow()
}

// allowMessage applies the input burst limit: messages closer together
// than the gap grow a burst counter; past the cap they are rejected
// until the sender backs off.
func (s *Session) allowMessage(now time.Time) bool {
	if now.Sub(s.lastMsgAt) < s.burstGap {
		s.burstCount++
	} else {
		s.burstCount = 0
	}
	s.lastMsgAt = now
	return s.burstCount <= s.burstMax
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetAuthenticated records a successful login.
func (s *Session) SetAuthenticated(accountID int64, username, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthed
	s.accountID = accountID
	s.username = username
	s.token = token
}

// SetInGame records character selection and instance placement.
func (s *Session) SetInGame(characterID int64, playerID, instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateInGame
	s.characterID = characterID
	s.playerID = playerID
	s.instanceID = instanceID
}

// LeaveGame drops the session back to the character screen.
func (s *Session) LeaveGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthed
	s.characterID = 0
	s.playerID = ""
	s.instanceID = ""
	s.vaultOpen = false
}

// SetInstanceID updates placement after a transfer.
func (s *Session) SetInstanceID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instanceID = id
}

// AccountID returns the authenticated account id, 0 when anonymous.
func (s *Session) AccountID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

// Username returns the authenticated username.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Token returns the session token issued at login.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// CharacterID returns the selected character id.
func (s *Session) CharacterID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.characterID
}

// PlayerID returns the resident player entity id.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// InstanceID returns the resident instance id.
func (s *Session) InstanceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceID
}

// VaultOpen reports whether the vault UI is open.
func (s *Session) VaultOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vaultOpen
}

// SetVaultOpen toggles the vault UI state.
func (s *Session) SetVaultOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaultOpen = open
}

// readPump decodes inbound frames and hands them to the dispatcher.
// Malformed frames are dropped silently per protocol policy.
func (s *Session) readPump(d Dispatcher) {
	defer func() {
		s.Close()
		d.Disconnected(s)
	}()
	for {
		frameType, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if frameType != websocket.BinaryMessage && frameType != websocket.TextMessage {
			continue
		}
		if !s.allowMessage(time.Now()) {
			s.Send("error", protocol.ErrorMessage{Message: "rate-limited"})
			continue
		}
		msg, err := protocol.Decode(frameType == websocket.BinaryMessage, payload)
		if err != nil {
			s.log.Debug("dropped malformed frame", zap.Error(err))
			continue
		}
		d.Dispatch(s, msg)
	}
}

// writePump drains the out queue onto the socket.
func (s *Session) writePump() {
	defer s.Close()
	for {
		select {
		case frame := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}
