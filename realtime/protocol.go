// Package realtime implements a client for the Supabase Realtime protocol.
// It maintains a single WebSocket connection, speaks Phoenix Protocol v1.0.0
// envelopes, and multiplexes channel subscriptions for postgres_changes,
// presence, and broadcast events over that one connection.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phoenix Protocol v1.0.0 message format
type Message struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref"`
}

// Client events
const (
	EventJoin        = "phx_join"
	EventLeave       = "phx_leave"
	EventHeartbeat   = "heartbeat"
	EventAccessToken = "access_token"
	EventBroadcast   = "broadcast"
	EventPresence    = "presence"
)

// Server events
const (
	EventReply    = "phx_reply"
	EventClose    = "phx_close"
	EventError    = "phx_error"
	EventSystem   = "system"
	EventPostgres = "postgres_changes"
)

// Phoenix topic for heartbeats
const TopicPhoenix = "phoenix"

// BuildTopic derives the channel topic for a schema and optional table.
// The same inputs always produce the same topic string.
func BuildTopic(schema, table string) string {
	if table != "" {
		return fmt.Sprintf("realtime:%s:%s", schema, table)
	}
	return fmt.Sprintf("realtime:%s", schema)
}

// normalizeTopic accepts either a full topic ("realtime:public:posts") or a
// bare channel name ("public:posts") and returns the full topic.
func normalizeTopic(channel string) string {
	if strings.HasPrefix(channel, "realtime:") || channel == TopicPhoenix {
		return channel
	}
	return "realtime:" + channel
}

// NewJoinMessage creates a phx_join envelope carrying the postgres_changes,
// presence, and broadcast configuration derived from the subscription config.
func NewJoinMessage(topic, ref string, cfg SubscriptionConfig, accessToken string) *Message {
	change := map[string]any{
		"event":  string(cfg.eventOrAll()),
		"schema": cfg.Schema,
	}
	if cfg.Table != "" {
		change["table"] = cfg.Table
	}
	if filter := cfg.filterString(); filter != "" {
		change["filter"] = filter
	}

	config := map[string]any{
		"postgres_changes": []any{change},
	}
	if cfg.EnablePresence {
		config["presence"] = map[string]any{"key": ""}
	}
	if cfg.EnableBroadcast {
		config["broadcast"] = map[string]any{"self": true}
	}

	payload := map[string]any{"config": config}
	if accessToken != "" {
		payload["access_token"] = accessToken
	}

	return &Message{
		Topic:   topic,
		Event:   EventJoin,
		Payload: payload,
		Ref:     ref,
	}
}

// NewLeaveMessage creates a phx_leave envelope for a topic.
func NewLeaveMessage(topic, ref string) *Message {
	return &Message{
		Topic:   topic,
		Event:   EventLeave,
		Payload: map[string]any{},
		Ref:     ref,
	}
}

// NewHeartbeatMessage creates a heartbeat envelope on the phoenix topic.
func NewHeartbeatMessage(ref string) *Message {
	return &Message{
		Topic:   TopicPhoenix,
		Event:   EventHeartbeat,
		Payload: map[string]any{},
		Ref:     ref,
	}
}

// NewAccessTokenMessage creates an access_token refresh envelope for a topic.
func NewAccessTokenMessage(topic, ref, token string) *Message {
	return &Message{
		Topic:   topic,
		Event:   EventAccessToken,
		Payload: map[string]any{"access_token": token},
		Ref:     ref,
	}
}

// Encode serializes a message to JSON bytes
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses JSON bytes into a Message
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}
	if msg.Topic == "" && msg.Event == "" {
		return nil, fmt.Errorf("invalid message format: missing topic and event")
	}
	return &msg, nil
}

// toRealtimeMessage converts a decoded envelope into the application-level
// message handed to subscription callbacks. postgres_changes payloads arrive
// either flat or nested under "data" depending on the server version; both
// shapes are accepted.
func (m *Message) toRealtimeMessage() RealtimeMessage {
	payload := m.Payload
	if data, ok := payload["data"].(map[string]any); ok {
		payload = data
	}

	rp := RealtimePayload{}
	if record, ok := payload["record"].(map[string]any); ok {
		rp.Record = record
	} else if record, ok := payload["new"].(map[string]any); ok {
		rp.Record = record
	}
	if old, ok := payload["old_record"].(map[string]any); ok {
		rp.OldRecord = old
	} else if old, ok := payload["old"].(map[string]any); ok {
		rp.OldRecord = old
	}
	rp.Schema, _ = payload["schema"].(string)
	rp.Table, _ = payload["table"].(string)
	rp.CommitTimestamp, _ = payload["commit_timestamp"].(string)
	if et, ok := payload["eventType"].(string); ok {
		rp.EventType = et
	} else if et, ok := payload["event_type"].(string); ok {
		rp.EventType = et
	}

	event := m.Event
	if event == EventPostgres && rp.EventType != "" {
		event = rp.EventType
	}

	return RealtimeMessage{
		Topic:   m.Topic,
		Event:   event,
		Ref:     m.Ref,
		Payload: rp,
	}
}
