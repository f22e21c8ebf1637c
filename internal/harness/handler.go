package harness

import "context"

// Call is one scheduled invocation handed to a handler, with its generated
// ID and the batch environment.
type Call struct {
	ID  string
	Inv Invocation
	Env ExecutionContext
}

// Handler executes one tool kind. Implementations classify themselves as
// order-independent (SupportsParallel true: pure reads) or order-sensitive;
// the scheduler relies on that split for its ordering guarantees.
type Handler interface {
	Name() string
	Kind() ToolKind
	SupportsParallel() bool
	Handle(ctx context.Context, call Call) (string, error)
}

// Registry is the closed dispatch table over tool names. Adding a tool is a
// table entry plus a Handler implementation.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	table := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		if h == nil {
			continue
		}
		table[h.Name()] = h
	}
	return &Registry{handlers: table}
}

func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered tool names in no particular order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
