package realtime

import (
	"github.com/markb/sbrt/internal/log"
)

// topicMatches reports whether a subscription should see a message topic.
// A subscription on "realtime:public" matches "realtime:public:posts",
// supporting schema-wide subscriptions without a table.
func topicMatches(subscriptionTopic, messageTopic string) bool {
	if subscriptionTopic == messageTopic {
		return true
	}
	return len(messageTopic) > len(subscriptionTopic) &&
		messageTopic[:len(subscriptionTopic)] == subscriptionTopic
}

// matchesEventFilter applies a subscription's event filter to a message
// event. Events that do not classify as INSERT/UPDATE/DELETE (protocol
// replies, presence, broadcast) bypass the filter.
func matchesEventFilter(filter Event, event string) bool {
	if filter == "" || filter == EventAll {
		return true
	}
	kind, ok := classifyEvent(event)
	if !ok {
		return true
	}
	return kind == filter
}

// dispatch fans an inbound envelope out to every matching subscription.
// Matches are collected under the read lock and callbacks invoked after it
// is released, so callback code may subscribe or unsubscribe without
// deadlocking.
func (c *Client) dispatch(msg *Message) {
	rtMsg := msg.toRealtimeMessage()

	c.registry.mu.RLock()
	matched := make([]*Subscription, 0, len(c.registry.subs))
	for _, sub := range c.registry.subs {
		if !topicMatches(sub.Topic, msg.Topic) {
			continue
		}
		if !matchesEventFilter(sub.Config.Event, rtMsg.Event) {
			continue
		}
		matched = append(matched, sub)
	}
	c.registry.mu.RUnlock()

	if len(matched) == 0 {
		return
	}
	getMetrics().dispatches.Add(float64(len(matched)))

	for _, sub := range matched {
		switch msg.Event {
		case EventPresence:
			if sub.Config.PresenceCallback != nil {
				sub.Config.PresenceCallback(parsePresenceState(msg.Payload))
			}
		case EventBroadcast:
			if sub.Config.BroadcastCallback != nil {
				sub.Config.BroadcastCallback(parseBroadcastMessage(msg.Payload))
			}
		}
		if sub.Callback != nil {
			log.Debug("realtime: invoking callback", "subscription_id", sub.ID, "event", rtMsg.Event)
			sub.Callback(rtMsg)
		}
	}
}
