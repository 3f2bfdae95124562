package lineage

import (
	"fmt"
	"reflect"
)

// EventBus maps an event type to an ordered, drainable buffer. Handlers
// subscribed to a type run synchronously on every Send, before buffering.
type EventBus struct {
	buffers  map[reflect.Type][]any
	handlers map[reflect.Type][]any
}

func NewEventBus() *EventBus {
	return &EventBus{
		buffers:  make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Send appends events to the buffer for T in argument order.
func Send[T any](b *EventBus, events ...T) {
	t := reflect.TypeFor[T]()
	for _, ev := range events {
		for _, h := range b.handlers[t] {
			h.(func(T))(ev)
		}
		b.buffers[t] = append(b.buffers[t], ev)
	}
}

// Subscribe registers fn for events of type T. Handlers are called in
// subscription order.
func Subscribe[T any](b *EventBus, fn func(T)) {
	t := reflect.TypeFor[T]()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Read returns the buffered events of type T without consuming them.
func Read[T any](b *EventBus) []T {
	buf := b.buffers[reflect.TypeFor[T]()]
	out := make([]T, len(buf))
	for i, ev := range buf {
		out[i] = ev.(T)
	}
	return out
}

// Drain returns and clears the buffered events of type T.
func Drain[T any](b *EventBus) []T {
	out := Read[T](b)
	delete(b.buffers, reflect.TypeFor[T]())
	return out
}

// Pending reports how many events of type T are buffered.
func Pending[T any](b *EventBus) int {
	return len(b.buffers[reflect.TypeFor[T]()])
}

// HierarchyEvent is one structural change to the parent/child graph. The
// concrete value is one of ChildAdded, ChildRemoved or ChildMoved.
type HierarchyEvent interface {
	fmt.Stringer
	hierarchyEvent()
}

type ChildAdded struct {
	Child  Entity
	Parent Entity
}

type ChildRemoved struct {
	Child  Entity
	Parent Entity
}

type ChildMoved struct {
	Child          Entity
	PreviousParent Entity
	NewParent      Entity
}

func (ChildAdded) hierarchyEvent()   {}
func (ChildRemoved) hierarchyEvent() {}
func (ChildMoved) hierarchyEvent()   {}

func (e ChildAdded) String() string {
	return fmt.Sprintf("ChildAdded{child: %v, parent: %v}", e.Child, e.Parent)
}

func (e ChildRemoved) String() string {
	return fmt.Sprintf("ChildRemoved{child: %v, parent: %v}", e.Child, e.Parent)
}

func (e ChildMoved) String() string {
	return fmt.Sprintf("ChildMoved{child: %v, previous: %v, new: %v}", e.Child, e.PreviousParent, e.NewParent)
}

func pushEvents(sto Storage, events ...HierarchyEvent) {
	if len(events) == 0 {
		return
	}
	Send(sto.Events(), events...)
}
