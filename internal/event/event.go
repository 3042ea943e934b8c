// Package event provides a minimal synchronous publish/subscribe primitive.
package event

// Handler receives a fired payload.
type Handler[T any] func(T)

// Event is a per-owner multicast event. Handlers run synchronously, in
// registration order, on the goroutine that calls Fire. The zero value is
// ready to use.
//
// Event is not safe for concurrent use; the owner serializes Register and
// Fire.
type Event[T any] struct {
	handlers []Handler[T]
}

// New creates an empty event.
func New[T any]() *Event[T] {
	return &Event[T]{}
}

// Register appends a handler. Registering the same handler twice makes it
// run twice per Fire.
func (e *Event[T]) Register(h Handler[T]) {
	e.handlers = append(e.handlers, h)
}

// Fire invokes every registered handler with v. A panicking handler is not
// recovered and aborts the remaining dispatch.
func (e *Event[T]) Fire(v T) {
	for _, h := range e.handlers {
		h(v)
	}
}
