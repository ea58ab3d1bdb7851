package realtime

import "strings"

// Event identifies a postgres change kind for subscription filtering.
type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
	EventAll    Event = "*"
)

// classifyEvent maps an envelope event string to a change kind. Protocol
// events like phx_reply do not classify and return false.
func classifyEvent(event string) (Event, bool) {
	switch event {
	case "INSERT":
		return EventInsert, true
	case "UPDATE":
		return EventUpdate, true
	case "DELETE":
		return EventDelete, true
	default:
		return "", false
	}
}

// FilterClause is one column comparison in an advanced filter list.
type FilterClause struct {
	Column   string
	Operator string // eq, neq, gt, gte, lt, lte, in
	Value    string
}

// String renders the clause in PostgREST form, e.g. "user_id=eq.123".
func (f FilterClause) String() string {
	return f.Column + "=" + f.Operator + "." + f.Value
}

// SubscriptionConfig holds the immutable configuration of one subscription.
type SubscriptionConfig struct {
	Table           string // empty subscribes to the whole schema
	Schema          string // defaults to "public"
	Event           Event  // empty or EventAll receives every change kind
	Filter          string // simple filter, e.g. "user_id=eq.123"
	AdvancedFilters []FilterClause

	EnablePresence  bool
	EnableBroadcast bool

	PresenceCallback  func(PresenceState)
	BroadcastCallback func(BroadcastMessage)
}

// DefaultSubscriptionConfig returns a config targeting the public schema.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{Schema: "public"}
}

func (c SubscriptionConfig) eventOrAll() Event {
	if c.Event == "" {
		return EventAll
	}
	return c.Event
}

// filterString renders the simple filter, or the advanced clauses when no
// simple filter is set. Multiple clauses are comma-joined; whether the server
// honors more than one is server-dependent.
func (c SubscriptionConfig) filterString() string {
	if c.Filter != "" {
		return c.Filter
	}
	if len(c.AdvancedFilters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.AdvancedFilters))
	for _, clause := range c.AdvancedFilters {
		parts = append(parts, clause.String())
	}
	return strings.Join(parts, ",")
}

// Subscription is a registry entry: a topic, its config, and the callback
// invoked for matching messages. The callback is shared and never mutated.
type Subscription struct {
	ID       string
	Topic    string
	Config   SubscriptionConfig
	Callback func(RealtimeMessage)
}

// SubscriptionInfo is a read-only snapshot of a registry entry.
type SubscriptionInfo struct {
	ID     string `json:"id"`
	Topic  string `json:"topic"`
	Schema string `json:"schema"`
	Table  string `json:"table,omitempty"`
	Event  Event  `json:"event,omitempty"`
}

// RealtimeMessage is a decoded application-level event handed to callbacks.
type RealtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Ref     string          `json:"ref,omitempty"`
	Payload RealtimePayload `json:"payload"`
}

// RealtimePayload carries the row-level data of a database change.
type RealtimePayload struct {
	Record          map[string]any `json:"record,omitempty"`
	OldRecord       map[string]any `json:"old_record,omitempty"`
	Schema          string         `json:"schema,omitempty"`
	Table           string         `json:"table,omitempty"`
	CommitTimestamp string         `json:"commit_timestamp,omitempty"`
	EventType       string         `json:"event_type,omitempty"`
}

// PresenceState describes one logical user present on a channel.
type PresenceState struct {
	UserID   string         `json:"user_id"`
	OnlineAt string         `json:"online_at"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BroadcastMessage is an arbitrary cross-client message on a channel.
type BroadcastMessage struct {
	Event      string         `json:"event"`
	Payload    map[string]any `json:"payload"`
	FromUserID string         `json:"from_user_id,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// ClientStats is a point-in-time snapshot of a client, consumed by the
// status endpoint and tests.
type ClientStats struct {
	State          string `json:"state"`
	Subscriptions  int    `json:"subscriptions"`
	LastRef        uint64 `json:"last_ref"`
	FramesReceived uint64 `json:"frames_received"`
	FramesDropped  uint64 `json:"frames_dropped"`
}
