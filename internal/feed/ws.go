package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"referral-attribution/internal/domain"
)

// WSConfig configures WebSocket feed behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// wsSubscribeRequest asks the feed to stream swap events for the given
// routers. An empty router list means all routers.
type wsSubscribeRequest struct {
	Method  string   `json:"method"`
	Routers []string `json:"routers,omitempty"`
}

// WSSource streams live swap events over a WebSocket feed, one JSON
// frame per event. It reconnects with exponential backoff and
// resubscribes after reconnect; the downstream Runner's block buffer
// absorbs any reordering that causes.
type WSSource struct {
	endpoint string
	routers  []string
	config   WSConfig
	log      *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSSource creates a WebSocket source and connects to the endpoint.
func NewWSSource(ctx context.Context, endpoint string, routers []string, config *WSConfig, log *zap.Logger) (*WSSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &WSSource{
		endpoint: endpoint,
		routers:  routers,
		config:   cfg,
		log:      log,
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// connect establishes the WebSocket connection and sends the subscribe
// request.
func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(wsSubscribeRequest{
		Method:  "subscribeSwaps",
		Routers: s.routers,
	}); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	s.conn = conn
	return nil
}

// Subscribe starts the read and ping loops and returns the event
// channel. The channel buffer absorbs bursts; sends block so no event is
// lost. The channel is closed when the source is closed.
func (s *WSSource) Subscribe(ctx context.Context) (<-chan *domain.SwapEvent, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("source closed")
	}

	eventsCh := make(chan *domain.SwapEvent, 1000)

	s.wg.Add(1)
	go s.readLoop(ctx, eventsCh)

	s.wg.Add(1)
	go s.pingLoop()

	return eventsCh, nil
}

// Close closes the WebSocket connection and stops the loops.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// readLoop reads frames and delivers decoded events until the source is
// closed. Read errors trigger a reconnect with exponential backoff.
func (s *WSSource) readLoop(ctx context.Context, eventsCh chan<- *domain.SwapEvent) {
	defer s.wg.Done()
	defer close(eventsCh)

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		if ctx.Err() != nil {
			return
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			// A previous reconnect attempt may have failed and left no
			// connection behind; keep retrying with backoff.
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
				reconnectDelay = reconnectDelay * 2
				if reconnectDelay > s.config.MaxReconnectDelay {
					reconnectDelay = s.config.MaxReconnectDelay
				}
			}
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		ev, err := decodeEvent(message)
		if err != nil {
			s.log.Warn("skipping feed frame", zap.Error(err))
			continue
		}

		select {
		case eventsCh <- ev:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pingLoop keeps the connection alive.
func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

// reconnect attempts to reconnect and resubscribe.
func (s *WSSource) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.log.Warn("reconnect failed", zap.Error(err))
		return
	}
	s.log.Info("reconnected to swap feed", zap.String("endpoint", s.endpoint))
}

var _ Source = (*WSSource)(nil)
