package realtime

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/markb/sbrt/internal/log"
)

// ConnectionState is the client's connection lifecycle state.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	// Heartbeat envelopes are sent on this interval
	defaultHeartbeatInterval = 30 * time.Second

	// Idle delay between receive polls, bounding CPU without blocking reads
	defaultPollInterval = 10 * time.Millisecond
)

// Config holds client configuration. URL and Key come from the surrounding
// project configuration; the intervals default sensibly when zero.
type Config struct {
	URL string // project base URL (http(s) or ws(s) scheme)
	Key string // API key appended to the connection URL

	HeartbeatInterval time.Duration
	PollInterval      time.Duration
}

// Client owns at most one live Transport and multiplexes all subscriptions
// over it. The zero value is not usable; construct with New.
//
// The client does not reconnect automatically: when the connection drops,
// the state flips to disconnected, the registry is cleared on the next
// Disconnect, and the caller re-establishes subscriptions after calling
// Connect again.
type Client struct {
	endpoint          string
	apiKey            string
	heartbeatInterval time.Duration
	pollInterval      time.Duration

	mu        *rwLocker // guards transport and authToken
	transport Transport
	authToken string

	factory TransportFactory

	state      atomic.Int32
	refCounter atomic.Uint64
	gen        atomic.Uint64 // bumped on every connect/disconnect; stale loops exit
	running    atomic.Bool

	framesReceived atomic.Uint64
	framesDropped  atomic.Uint64

	registry *registry
	metrics  *clientMetrics
}

// New creates a client for the given project. No network activity happens
// until Connect or the first Subscribe.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("realtime: URL is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("realtime: API key is required")
	}

	wsURL := strings.Replace(cfg.URL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	endpoint := strings.TrimSuffix(wsURL, "/") + "/realtime/v1/websocket"

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Client{
		endpoint:          endpoint,
		apiKey:            cfg.Key,
		heartbeatInterval: heartbeat,
		pollInterval:      poll,
		mu:                newLocker(),
		factory:           newTransport,
		registry:          newRegistry(),
		metrics:           getMetrics(),
	}, nil
}

// socketURL builds the full connection URL with the API key attached.
func (c *Client) socketURL() string {
	return fmt.Sprintf("%s?apikey=%s&vsn=1.0.0", c.endpoint, url.QueryEscape(c.apiKey))
}

// Connect opens the websocket and starts the receive and heartbeat loops.
// Calling Connect while already connected is a cheap success.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.transport != nil {
		if c.transport.IsConnected() {
			c.mu.Unlock()
			log.Debug("realtime: already connected")
			return nil
		}
		// Left over from an autonomous drop; release its resources before
		// replacing it.
		c.transport.Close()
		c.transport = nil
	}

	c.state.Store(int32(StateConnecting))
	transport := c.factory()
	if err := transport.Connect(c.socketURL()); err != nil {
		c.state.Store(int32(StateDisconnected))
		c.mu.Unlock()
		return fmt.Errorf("realtime: connect failed: %w", err)
	}
	c.transport = transport
	c.state.Store(int32(StateConnected))
	gen := c.gen.Add(1)
	c.running.Store(true)
	c.mu.Unlock()

	spawn(func() { c.receiveLoop(gen) })
	spawn(func() { c.heartbeatLoop(gen) })

	log.Info("realtime: connected", "endpoint", c.endpoint)
	return nil
}

// Disconnect stops the background loops, closes the transport, and clears
// every subscription. Subscriptions are not preserved across disconnects.
func (c *Client) Disconnect() error {
	c.running.Store(false)
	c.gen.Add(1)

	c.mu.Lock()
	if c.transport != nil {
		c.transport.Close()
		c.transport = nil
	}
	c.mu.Unlock()
	c.state.Store(int32(StateDisconnected))

	cleared := c.registry.clear()
	if cleared > 0 {
		c.metrics.activeSubs.Sub(float64(cleared))
	}
	log.Info("realtime: disconnected", "subscriptions_cleared", cleared)
	return nil
}

// IsConnected reports whether a live transport is present.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport != nil && c.transport.IsConnected()
}

// State returns the connection lifecycle state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// nextRef allocates the next correlation id. Refs are strictly increasing
// for the lifetime of the client.
func (c *Client) nextRef() string {
	return strconv.FormatUint(c.refCounter.Add(1), 10)
}

func (c *Client) currentAuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// send encodes and writes one envelope. Envelopes are serialized through
// the transport's send path in call order.
func (c *Client) send(msg *Message) error {
	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("realtime: encode failed: %w", err)
	}

	c.mu.RLock()
	transport := c.transport
	c.mu.RUnlock()

	if transport == nil || !transport.IsConnected() {
		return ErrNotConnected
	}
	return transport.Send(string(data))
}

// Channel starts a subscription builder. The name is a label only; the
// topic derives from the configured schema and table.
func (c *Client) Channel(name string) *ChannelBuilder {
	return &ChannelBuilder{
		client: c,
		name:   name,
		config: DefaultSubscriptionConfig(),
	}
}

// Subscribe registers a subscription and joins its topic, connecting first
// if necessary. The returned id is passed to Unsubscribe.
//
// There is no join acknowledgement timeout: a join the server never
// acknowledges simply never receives matching frames.
func (c *Client) Subscribe(cfg SubscriptionConfig, callback func(RealtimeMessage)) (string, error) {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}

	if !c.IsConnected() {
		if err := c.Connect(); err != nil {
			return "", err
		}
	}

	id := uuid.New().String()
	topic := BuildTopic(cfg.Schema, cfg.Table)
	sub := &Subscription{ID: id, Topic: topic, Config: cfg, Callback: callback}

	// Insert before the join send so a fast-arriving reply already finds
	// a destination.
	c.registry.add(sub)

	join := NewJoinMessage(topic, c.nextRef(), cfg, c.currentAuthToken())
	if err := c.send(join); err != nil {
		c.registry.remove(id)
		return "", fmt.Errorf("realtime: join send failed: %w", err)
	}

	c.metrics.activeSubs.Inc()
	log.Info("realtime: subscribed", "subscription_id", id, "topic", topic)
	return id, nil
}

// Unsubscribe removes a subscription and leaves its topic. An unknown id
// is a no-op with a logged warning, not an error.
func (c *Client) Unsubscribe(id string) error {
	sub, ok := c.registry.remove(id)
	if !ok {
		log.Warn("realtime: subscription not found for unsubscribe", "subscription_id", id)
		return nil
	}
	c.metrics.activeSubs.Dec()

	leave := NewLeaveMessage(sub.Topic, c.nextRef())
	if err := c.send(leave); err != nil {
		return fmt.Errorf("realtime: leave send failed: %w", err)
	}
	log.Info("realtime: unsubscribed", "subscription_id", id, "topic", sub.Topic)
	return nil
}

// TrackPresence announces a user as present on a channel. OnlineAt
// defaults to now when empty.
func (c *Client) TrackPresence(channel string, state PresenceState) error {
	if state.OnlineAt == "" {
		state.OnlineAt = time.Now().UTC().Format(time.RFC3339)
	}
	return c.send(NewPresenceTrackMessage(normalizeTopic(channel), c.nextRef(), state))
}

// UntrackPresence removes a user's presence from a channel.
func (c *Client) UntrackPresence(channel, userID string) error {
	return c.send(NewPresenceUntrackMessage(normalizeTopic(channel), c.nextRef(), userID))
}

// Broadcast sends an arbitrary cross-client message on a channel.
func (c *Client) Broadcast(channel, event string, payload map[string]any, fromUserID string) error {
	return c.send(NewBroadcastSendMessage(normalizeTopic(channel), c.nextRef(), event, payload, fromUserID))
}

// Subscriptions returns a snapshot of the live subscriptions, ordered by
// topic then id.
func (c *Client) Subscriptions() []SubscriptionInfo {
	subs := c.registry.snapshot()
	infos := make([]SubscriptionInfo, 0, len(subs))
	for _, sub := range subs {
		infos = append(infos, SubscriptionInfo{
			ID:     sub.ID,
			Topic:  sub.Topic,
			Schema: sub.Config.Schema,
			Table:  sub.Config.Table,
			Event:  sub.Config.Event,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Topic != infos[j].Topic {
			return infos[i].Topic < infos[j].Topic
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Stats returns a point-in-time snapshot of the client.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		State:          c.State().String(),
		Subscriptions:  c.registry.len(),
		LastRef:        c.refCounter.Load(),
		FramesReceived: c.framesReceived.Load(),
		FramesDropped:  c.framesDropped.Load(),
	}
}

// receiveLoop polls the transport for frames until cancelled or the
// transport fails. One malformed frame never terminates the loop.
func (c *Client) receiveLoop(gen uint64) {
	log.Debug("realtime: receive loop started")

	for c.running.Load() && c.gen.Load() == gen {
		c.mu.RLock()
		transport := c.transport
		c.mu.RUnlock()
		if transport == nil {
			break
		}

		frame, ok, err := transport.Receive()
		if err != nil {
			log.Debug("realtime: receive loop ending", "error", err.Error())
			break
		}
		if !ok {
			time.Sleep(c.pollInterval)
			continue
		}

		c.framesReceived.Add(1)
		c.metrics.framesReceived.Inc()

		msg, err := DecodeMessage([]byte(frame))
		if err != nil {
			c.framesDropped.Add(1)
			c.metrics.framesDropped.Inc()
			log.Debug("realtime: skipping malformed frame", "error", err.Error(), "len", len(frame))
			continue
		}
		c.handleMessage(msg)
	}

	// Autonomous Connected -> Disconnected on transport failure. A later
	// Connect owns the state through a newer generation.
	if c.gen.Load() == gen && c.running.CompareAndSwap(true, false) {
		c.state.Store(int32(StateDisconnected))
	}
	log.Debug("realtime: receive loop stopped")
}

// handleMessage routes one decoded envelope.
func (c *Client) handleMessage(msg *Message) {
	switch msg.Event {
	case EventReply:
		log.Debug("realtime: reply", "topic", msg.Topic, "ref", msg.Ref)
	case EventHeartbeat:
		log.Debug("realtime: heartbeat acknowledged", "ref", msg.Ref)
	case EventClose, EventError:
		log.Debug("realtime: channel closed by server", "topic", msg.Topic, "event", msg.Event)
	case EventSystem:
		log.Debug("realtime: system message", "topic", msg.Topic)
	}
	c.dispatch(msg)
}

// heartbeatLoop sends a heartbeat envelope on a fixed interval. A failed
// send is logged, not fatal; the receive loop detects a dead connection.
func (c *Client) heartbeatLoop(gen uint64) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !c.running.Load() || c.gen.Load() != gen {
			return
		}
		if err := c.send(NewHeartbeatMessage(c.nextRef())); err != nil {
			log.Warn("realtime: heartbeat send failed", "error", err.Error())
			continue
		}
		c.metrics.heartbeats.Inc()
	}
}
