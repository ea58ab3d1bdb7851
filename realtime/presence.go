package realtime

import "time"

// NewPresenceTrackMessage creates a presence envelope announcing a user on
// a topic.
func NewPresenceTrackMessage(topic, ref string, state PresenceState) *Message {
	payload := map[string]any{
		"user_id":   state.UserID,
		"online_at": state.OnlineAt,
	}
	if state.Metadata != nil {
		payload["metadata"] = state.Metadata
	}
	return &Message{
		Topic:   topic,
		Event:   EventPresence,
		Payload: map[string]any{"event": "track", "payload": payload},
		Ref:     ref,
	}
}

// NewPresenceUntrackMessage creates a presence envelope removing a user
// from a topic.
func NewPresenceUntrackMessage(topic, ref, userID string) *Message {
	return &Message{
		Topic:   topic,
		Event:   EventPresence,
		Payload: map[string]any{"event": "untrack", "payload": map[string]any{"user_id": userID}},
		Ref:     ref,
	}
}

// NewBroadcastSendMessage creates a broadcast envelope for a topic.
func NewBroadcastSendMessage(topic, ref, event string, payload map[string]any, fromUserID string) *Message {
	return &Message{
		Topic: topic,
		Event: EventBroadcast,
		Payload: map[string]any{
			"type":         "broadcast",
			"event":        event,
			"payload":      payload,
			"from_user_id": fromUserID,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
		Ref: ref,
	}
}

// parsePresenceState extracts a PresenceState from a presence envelope
// payload. The state may arrive flat or nested under "payload".
func parsePresenceState(payload map[string]any) PresenceState {
	if inner, ok := payload["payload"].(map[string]any); ok {
		payload = inner
	}
	state := PresenceState{}
	state.UserID, _ = payload["user_id"].(string)
	state.OnlineAt, _ = payload["online_at"].(string)
	if meta, ok := payload["metadata"].(map[string]any); ok {
		state.Metadata = meta
	}
	return state
}

// parseBroadcastMessage extracts a BroadcastMessage from a broadcast
// envelope payload.
func parseBroadcastMessage(payload map[string]any) BroadcastMessage {
	msg := BroadcastMessage{}
	msg.Event, _ = payload["event"].(string)
	msg.FromUserID, _ = payload["from_user_id"].(string)
	msg.Timestamp, _ = payload["timestamp"].(string)
	if inner, ok := payload["payload"].(map[string]any); ok {
		msg.Payload = inner
	}
	return msg
}
