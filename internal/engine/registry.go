package engine

// ElementRegistry tracks which elements own a live pipeline and which are
// permanently blocked from routing. Blocking is terminal for the lifetime
// of the element: a source that cannot be captured once will never be
// captured, so the registry remembers the failure instead of retrying.
type ElementRegistry struct {
	pipelines map[string]*Pipeline
	blocked   map[string]struct{}
}

func newElementRegistry() *ElementRegistry {
	return &ElementRegistry{
		pipelines: make(map[string]*Pipeline),
		blocked:   make(map[string]struct{}),
	}
}

func (r *ElementRegistry) pipeline(elementID string) (*Pipeline, bool) {
	p, ok := r.pipelines[elementID]
	return p, ok
}

func (r *ElementRegistry) add(elementID string, p *Pipeline) {
	r.pipelines[elementID] = p
}

func (r *ElementRegistry) remove(elementID string) (*Pipeline, bool) {
	p, ok := r.pipelines[elementID]
	if ok {
		delete(r.pipelines, elementID)
	}
	delete(r.blocked, elementID)
	return p, ok
}

func (r *ElementRegistry) block(elementID string) {
	r.blocked[elementID] = struct{}{}
}

func (r *ElementRegistry) isBlocked(elementID string) bool {
	_, ok := r.blocked[elementID]
	return ok
}

func (r *ElementRegistry) count() int {
	return len(r.pipelines)
}

func (r *ElementRegistry) drain() []*Pipeline {
	out := make([]*Pipeline, 0, len(r.pipelines))
	for id, p := range r.pipelines {
		out = append(out, p)
		delete(r.pipelines, id)
	}
	return out
}
