package realtime

// registry is the concurrent map of live subscriptions. Reads (dispatch) may
// proceed concurrently; writes (subscribe/unsubscribe/clear) are exclusive.
type registry struct {
	mu   *rwLocker
	subs map[string]*Subscription
}

func newRegistry() *registry {
	return &registry{
		mu:   newLocker(),
		subs: make(map[string]*Subscription),
	}
}

func (r *registry) add(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = sub
}

func (r *registry) remove(id string) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
	}
	return sub, ok
}

// clear drops every subscription and returns how many were removed.
func (r *registry) clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.subs)
	r.subs = make(map[string]*Subscription)
	return n
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// snapshot returns all subscriptions without holding the lock afterwards.
func (r *registry) snapshot() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	return subs
}

// topics returns the distinct topics currently joined.
func (r *registry) topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.subs))
	topics := make([]string, 0, len(r.subs))
	for _, sub := range r.subs {
		if _, ok := seen[sub.Topic]; ok {
			continue
		}
		seen[sub.Topic] = struct{}{}
		topics = append(topics, sub.Topic)
	}
	return topics
}
