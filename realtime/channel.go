package realtime

// ChannelBuilder accumulates a SubscriptionConfig through a fluent chain.
// It has no network or state side effects until Subscribe is called.
type ChannelBuilder struct {
	client *Client
	name   string
	config SubscriptionConfig
}

// Table sets the table to subscribe to.
func (b *ChannelBuilder) Table(table string) *ChannelBuilder {
	b.config.Table = table
	return b
}

// Schema sets the schema (default "public").
func (b *ChannelBuilder) Schema(schema string) *ChannelBuilder {
	b.config.Schema = schema
	return b
}

// Event restricts the subscription to one change kind.
func (b *ChannelBuilder) Event(event Event) *ChannelBuilder {
	b.config.Event = event
	return b
}

// Filter sets a simple PostgREST-style filter, e.g. "user_id=eq.123".
func (b *ChannelBuilder) Filter(filter string) *ChannelBuilder {
	b.config.Filter = filter
	return b
}

// And appends an advanced filter clause. Clauses keep their insertion order.
func (b *ChannelBuilder) And(column, operator, value string) *ChannelBuilder {
	b.config.AdvancedFilters = append(b.config.AdvancedFilters, FilterClause{
		Column:   column,
		Operator: operator,
		Value:    value,
	})
	return b
}

// OnPresence enables the presence sub-protocol and routes presence events
// to the given callback.
func (b *ChannelBuilder) OnPresence(callback func(PresenceState)) *ChannelBuilder {
	b.config.EnablePresence = true
	b.config.PresenceCallback = callback
	return b
}

// OnBroadcast enables the broadcast sub-protocol and routes broadcast
// messages to the given callback.
func (b *ChannelBuilder) OnBroadcast(callback func(BroadcastMessage)) *ChannelBuilder {
	b.config.EnableBroadcast = true
	b.config.BroadcastCallback = callback
	return b
}

// Subscribe forwards the accumulated config to the client.
func (b *ChannelBuilder) Subscribe(callback func(RealtimeMessage)) (string, error) {
	return b.client.Subscribe(b.config, callback)
}
