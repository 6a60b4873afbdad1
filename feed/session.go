// Package feed maintains a websocket subscription to the exchange
// market data feed. A Session owns the connection lifecycle, keeps the
// subscription alive with periodic pings and parks incoming messages
// in a bounded buffer for consumers to drain.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"coinbasepro/auth"
	appconfig "coinbasepro/config"
	"coinbasepro/errs"
	"coinbasepro/logger"
)

// Session states. Transitions only move forward: a closed session is
// never restarted, callers create a new one instead.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateStopping     = "stopping"
	StateClosed       = "closed"
)

// defaultChannels is used when the configuration names no channels.
// The subscribe frame always carries a channel list; an empty list is
// rejected by the exchange.
var defaultChannels = []string{"heartbeat"}

// Session subscribes to the websocket feed for the configured products
// and channels and buffers everything the exchange sends. When
// credentials are supplied the subscribe frame is signed so that
// user-specific channels deliver the profile's own order activity.
type Session struct {
	config *appconfig.Config
	authn  *auth.Authenticator
	buffer *Buffer

	conn  *websocket.Conn
	ctx   context.Context
	wg    *sync.WaitGroup
	mu    sync.RWMutex
	state string

	stop     chan struct{}
	stopOnce sync.Once

	log *logger.Log

	// OnMessage, when set before Start, is invoked from the receive
	// loop for every buffered message. It must not block.
	OnMessage func(Message)
}

// NewSession prepares a session for the products and channels named in
// the configuration. Credentials are optional: incomplete credentials
// produce an unauthenticated subscription.
func NewSession(cfg *appconfig.Config, creds appconfig.Credentials) *Session {
	s := &Session{
		config: cfg,
		buffer: NewBuffer(cfg.Feed.MaxMemory),
		wg:     &sync.WaitGroup{},
		state:  StateDisconnected,
		stop:   make(chan struct{}),
		log:    logger.GetLogger(),
	}
	if creds.Complete() {
		authn := auth.NewAuthenticator(creds)
		s.authn = &authn
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Buffer exposes the session's message backlog for draining.
func (s *Session) Buffer() *Buffer {
	return s.buffer
}

// Start dials the feed endpoint, sends the subscribe frame and begins
// receiving. It returns once the subscription is in flight; messages
// accumulate in the buffer until the session ends. A handshake failure
// is fatal: the session moves straight to closed and a new session
// must be created to retry.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("feed session already %s", state)
	}
	s.state = StateConnecting
	s.ctx = ctx
	s.mu.Unlock()

	url := s.config.Feed.URL
	if url == "" {
		url = appconfig.FeedURL(s.config.API.Environment)
	}
	log := s.log.WithComponent("feed_session").WithFields(logger.Fields{
		"url":      url,
		"products": s.config.Feed.Products,
	})

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		s.setState(StateClosed)
		return &errs.ConnectionError{URL: url, Cause: err}
	}

	frame, err := s.subscribeFrame()
	if err != nil {
		conn.Close()
		s.setState(StateClosed)
		return err
	}
	if err := conn.WriteJSON(frame); err != nil {
		conn.Close()
		s.setState(StateClosed)
		return &errs.ConnectionError{URL: url, Cause: err}
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()

	log.Info("feed subscription established")
	s.wg.Add(2)
	go s.receiveLoop()
	return nil
}

// End closes the subscription and waits for the receive and keepalive
// loops to finish. It is idempotent and safe to call on a session that
// was never started.
func (s *Session) End() {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateStopping
	}
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		// Best effort: tell the exchange we are leaving, then force
		// any blocked read to return.
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}

	s.wg.Wait()
	s.setState(StateClosed)
	s.log.WithComponent("feed_session").Info("feed session closed")
}

// subscribeFrame assembles the subscription request. Authenticated
// frames carry a signature over the account verification endpoint, the
// same scheme the private REST surface uses.
func (s *Session) subscribeFrame() (map[string]interface{}, error) {
	channels := s.config.Feed.Channels
	if len(channels) == 0 {
		channels = defaultChannels
	}
	frame := map[string]interface{}{
		"type":        "subscribe",
		"product_ids": s.config.Feed.Products,
		"channels":    channels,
	}
	if s.authn != nil {
		headers, err := s.authn.Headers("GET", "/users/self/verify", "")
		if err != nil {
			return nil, err
		}
		frame["signature"] = headers["CB-ACCESS-SIGN"]
		frame["timestamp"] = headers["CB-ACCESS-TIMESTAMP"]
		frame["key"] = headers["CB-ACCESS-KEY"]
		frame["passphrase"] = headers["CB-ACCESS-PASSPHRASE"]
	}
	return frame, nil
}

// receiveLoop reads frames until the session is ended or the
// connection fails. The read deadline is a liveness window covering
// one ping round trip; pongs and received frames extend it. Teardown
// stays bounded because End closes the socket, which unblocks a
// pending read immediately.
func (s *Session) receiveLoop() {
	defer s.wg.Done()
	go s.keepAliveLoop()

	log := s.log.WithComponent("feed_session").WithFields(logger.Fields{"worker": "receive"})
	window := s.readWindow()
	s.conn.SetReadDeadline(time.Now().Add(window))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(window))
	})

	for {
		select {
		case <-s.stop:
			return
		case <-s.ctx.Done():
			s.teardown()
			return
		default:
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
			case <-s.ctx.Done():
			default:
				log.WithError(err).Warn("feed read failed, session terminating")
			}
			// A receive failure is a stop signal.
			s.teardown()
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(window))

		// Any valid JSON value is buffered; non-object values simply
		// carry no type or product. Only unparseable frames are dropped.
		msg := Message{Raw: raw, Received: time.Now()}
		if err := json.Unmarshal(raw, &msg); err != nil {
			if !json.Valid(raw) {
				log.WithError(err).Debug("discarding malformed feed message")
				continue
			}
		}
		s.buffer.Add(msg)
		if s.OnMessage != nil {
			s.OnMessage(msg)
		}
	}
}

// keepAliveLoop pings the exchange on a fixed cadence and reports the
// buffer depth so slow consumers are visible in the metrics.
func (s *Session) keepAliveLoop() {
	defer s.wg.Done()

	interval := s.config.Feed.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-s.ctx.Done():
			// Closing the socket here unblocks a pending read so the
			// receive loop observes the cancellation as well.
			s.teardown()
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.log.WithComponent("feed_session").WithError(err).Debug("keepalive ping failed")
			}
			s.log.LogMetric("feed_session", "buffer_depth", s.buffer.Len(), "gauge", logger.Fields{
				"capacity": s.buffer.Cap(),
			})
		}
	}
}

// teardown releases the keepalive loop, closes the socket and marks
// the session closed. Safe to call from either loop or more than once.
func (s *Session) teardown() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.conn.Close()
	s.setState(StateClosed)
}

// readWindow is the longest silence tolerated on the socket: one ping
// interval plus the configured read timeout for the pong to arrive.
func (s *Session) readWindow() time.Duration {
	interval := s.config.Feed.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := s.config.Feed.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return interval + timeout
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
