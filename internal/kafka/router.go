package kafka

import "context"

// TopicRouter sends records to the handler registered for their topic and
// everything else to the fallback.
type TopicRouter struct {
	routes   map[string]Handler
	fallback Handler
}

func NewTopicRouter(fallback Handler) *TopicRouter {
	return &TopicRouter{routes: make(map[string]Handler), fallback: fallback}
}

func (r *TopicRouter) Route(topic string, h Handler) {
	r.routes[topic] = h
}

// Topics returns the fallback topics plus every routed topic, without duplicates.
func (r *TopicRouter) Topics(fallbackTopics []string) []string {
	seen := make(map[string]bool, len(fallbackTopics)+len(r.routes))
	out := make([]string, 0, len(fallbackTopics)+len(r.routes))
	for _, t := range fallbackTopics {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for t := range r.routes {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func (r *TopicRouter) Handle(ctx context.Context, topic string, value []byte) {
	if h, ok := r.routes[topic]; ok {
		h.Handle(ctx, topic, value)
		return
	}
	if r.fallback != nil {
		r.fallback.Handle(ctx, topic, value)
	}
}
