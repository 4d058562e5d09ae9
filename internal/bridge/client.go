// Package bridge connects to the game host over a websocket and exposes the
// host's observed state as internal/host capabilities. Commands are sent as
// CMD messages; their effects only become visible through later STATE
// messages.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shinyhunt.ai/internal/protocol"
)

var (
	ErrNotConnected    = errors.New("bridge not connected")
	ErrProtocolVersion = errors.New("unsupported protocol version")
)

type Options struct {
	URL              string
	ClientName       string
	SessionID        string
	CatalogDigest    string
	HandshakeTimeout time.Duration
	ReconnectDelay   time.Duration
	// ReadTimeout bounds the silence tolerated between host messages.
	ReadTimeout      time.Duration
	QueueSize        int
}

type Client struct {
	opts      Options
	log       *zap.Logger
	validator *protocol.Validator
	dialer    *websocket.Dialer
	seq       atomic.Uint64

	mu         sync.RWMutex
	out        chan []byte
	state      view
	hasState   bool
	caps       map[string]bool
	hostName   string
	ready      chan struct{}
	readyOnce  sync.Once
	stated     chan struct{}
	statedOnce sync.Once
}

func New(opts Options, log *zap.Logger) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("bridge: empty url")
	}
	if opts.ClientName == "" {
		opts.ClientName = "huntbot"
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Client{
		opts:      opts,
		log:       log,
		validator: v,
		dialer:    &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		ready:     make(chan struct{}),
		stated:    make(chan struct{}),
	}, nil
}

// Run dials the host and keeps the session alive, reconnecting after
// failures, until ctx is done. A protocol version mismatch is fatal.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrProtocolVersion) {
			return err
		}
		c.log.Warn("host session ended, reconnecting", zap.Error(err), zap.Duration("delay", c.opts.ReconnectDelay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

// Ready blocks until the first handshake has completed.
func (c *Client) Ready(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ready:
		return nil
	}
}

// StateReady blocks until the first STATE has been applied. The host
// view is empty before that, so decisions made earlier see nothing.
func (c *Client) StateReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stated:
		return nil
	}
}

func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out != nil
}

func (c *Client) HostName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostName
}

// Capabilities lists what the host announced in its first WELCOME.
func (c *Client) Capabilities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.caps))
	for k := range c.caps {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := c.handshake(conn); err != nil {
		return err
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	out := make(chan []byte, c.opts.QueueSize)
	c.mu.Lock()
	c.out = out
	// Sequence numbers restart with every host session.
	c.hasState = false
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.out = nil
		c.mu.Unlock()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	// Writer goroutine.
	go func() {
		defer wg.Done()
		for {
			select {
			case <-sctx.Done():
				return
			case b := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}
	}()
	// Closing the conn unblocks the reader when ctx ends first.
	go func() {
		defer wg.Done()
		<-sctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	err = c.readLoop(conn)
	cancel()
	wg.Wait()
	return err
}

func (c *Client) handshake(conn *websocket.Conn) error {
	hello := protocol.HelloMsg{
		Type:              protocol.TypeHello,
		ProtocolVersion:   protocol.Version,
		SupportedVersions: protocol.SupportedVersions,
		ClientName:        c.opts.ClientName,
		SessionID:         c.opts.SessionID,
		CatalogDigest:     c.opts.CatalogDigest,
	}
	if err := writeJSON(conn, hello); err != nil {
		return fmt.Errorf("send HELLO: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read WELCOME: %w", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return fmt.Errorf("decode WELCOME: %w", err)
	}
	switch base.Type {
	case protocol.TypeWelcome:
	case protocol.TypeError:
		var e protocol.ErrorMsg
		_ = json.Unmarshal(msg, &e)
		c.checkCode(e)
		if e.Code == protocol.ErrProtoVersion {
			return fmt.Errorf("%w: %s", ErrProtocolVersion, e.Message)
		}
		return fmt.Errorf("host rejected HELLO: %s %s", e.Code, e.Message)
	default:
		return fmt.Errorf("expected WELCOME, got %q", base.Type)
	}
	if err := c.validator.Validate(protocol.TypeWelcome, msg); err != nil {
		return err
	}
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &w); err != nil {
		return fmt.Errorf("decode WELCOME: %w", err)
	}
	selected := w.SelectedVersion
	if selected == "" {
		selected = w.ProtocolVersion
	}
	if !slices.Contains(protocol.SupportedVersions, selected) {
		return fmt.Errorf("%w: host selected %q", ErrProtocolVersion, selected)
	}

	caps := make(map[string]bool, len(w.Capabilities))
	for _, name := range w.Capabilities {
		caps[name] = true
	}
	c.mu.Lock()
	first := c.caps == nil
	if first {
		c.caps = caps
		c.hostName = w.HostName
	} else if !sameCaps(c.caps, caps) {
		c.log.Warn("host capabilities changed on reconnect, keeping the first set", zap.Strings("capabilities", w.Capabilities))
	}
	c.mu.Unlock()

	c.log.Info("connected to host", zap.String("host", w.HostName), zap.String("version", selected), zap.Strings("capabilities", w.Capabilities))
	c.readyOnce.Do(func() { close(c.ready) })
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			c.log.Debug("dropping undecodable message", zap.Error(err))
			continue
		}
		switch base.Type {
		case protocol.TypeState:
			c.applyState(msg)
		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err == nil {
				c.checkCode(e)
				c.log.Warn("host rejected command", zap.String("code", e.Code), zap.String("message", e.Message), zap.Uint64("seq", e.Seq))
			}
		}
	}
}

func (c *Client) applyState(msg []byte) {
	if err := c.validator.Validate(protocol.TypeState, msg); err != nil {
		c.log.Warn("dropping invalid STATE", zap.Error(err))
		return
	}
	var st protocol.StateMsg
	if err := json.Unmarshal(msg, &st); err != nil {
		c.log.Warn("dropping invalid STATE", zap.Error(err))
		return
	}
	if st.ProtocolVersion != protocol.Version {
		c.log.Warn("dropping STATE with foreign protocol version", zap.String("version", st.ProtocolVersion))
		return
	}
	v, err := newView(st)
	if err != nil {
		c.log.Warn("dropping invalid STATE", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasState && v.seq < c.state.seq {
		return
	}
	c.state = v
	c.hasState = true
	c.statedOnce.Do(func() { close(c.stated) })
}

func (c *Client) checkCode(e protocol.ErrorMsg) {
	if !protocol.IsKnownCode(e.Code) {
		c.log.Warn("host sent unknown error code", zap.String("code", e.Code))
	}
}

// send queues a command. It never blocks.
func (c *Client) send(cmd protocol.CmdMsg) error {
	cmd.Type = protocol.TypeCmd
	cmd.ProtocolVersion = protocol.Version
	cmd.Seq = c.seq.Add(1)
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	c.mu.RLock()
	out := c.out
	c.mu.RUnlock()
	if out == nil {
		return ErrNotConnected
	}
	select {
	case out <- b:
		return nil
	default:
		c.log.Warn("command queue full, dropping", zap.String("cmd", cmd.Cmd))
		return fmt.Errorf("send %s: queue full", cmd.Cmd)
	}
}

func (c *Client) sendLogged(cmd protocol.CmdMsg) bool {
	if err := c.send(cmd); err != nil {
		c.log.Debug("command not sent", zap.String("cmd", cmd.Cmd), zap.Error(err))
		return false
	}
	return true
}

// snapshot returns the last STATE view. ok is false before the first STATE
// or while disconnected.
func (c *Client) snapshot() (view, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.out == nil || !c.hasState {
		return view{}, false
	}
	return c.state, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func sameCaps(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
