// Package waiter implements a a wait queue, where waiters can be registered to
// be notified of events. It is loosely based on the implementation in gVisor.
//
// Waiters are kept in a heap-backed list.List, in registration order.
package waiter

import (
	"sync"

	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/list/raw"
	"hop.computer/relist/pkg/must"
)

type Queue[T any] struct {
	l *list.List[*Entry[T], *raw.Node[*Entry[T]]]
	m sync.RWMutex
}

type Entry[T any] struct {
	object   *T
	listener EventListener[T]
}

type EventListener[T any] interface {
	NotifyEvent(*T)
}

// Len returns the number of registered entries.
func (q *Queue[T]) Len() int {
	q.m.RLock()
	defer q.m.RUnlock()
	if q.l == nil {
		return 0
	}
	return q.l.Len()
}

func (q *Queue[T]) EventRegister(e *Entry[T]) {
	q.m.Lock()
	defer q.m.Unlock()
	if q.l == nil {
		q.l = raw.New[*Entry[T]]()
	}
	must.Do(q.l.PushBack(e))
}

// EventUnregister removes e from the queue. It returns false if e was not
// registered.
func (q *Queue[T]) EventUnregister(e *Entry[T]) bool {
	q.m.Lock()
	defer q.m.Unlock()
	if q.l == nil {
		return false
	}
	for it := q.l.Begin(); !it.IsEnd(); it.Inc() {
		if *it.Value() == e {
			q.l.Erase(it)
			return true
		}
	}
	return false
}

// Notify calls every registered listener with its object, in registration
// order.
func (q *Queue[T]) Notify() {
	q.m.RLock()
	defer q.m.RUnlock()
	if q.l == nil {
		return
	}
	for entry := range q.l.Values() {
		entry.listener.NotifyEvent(entry.object)
	}
}

type functionNotifier[T any] func(*T)

func (f functionNotifier[T]) NotifyEvent(t *T) {
	f(t)
}

func NewFunctionEntry[T any](object *T, f func(*T)) *Entry[T] {
	e := Entry[T]{
		object:   object,
		listener: functionNotifier[T](f),
	}
	return &e
}

type channelNotifier[T any] chan *T

func (c channelNotifier[T]) NotifyEvent(t *T) {
	c <- t
}

func NewChannelEntry[T any](object *T, c chan *T) *Entry[T] {
	e := Entry[T]{
		object:   object,
		listener: channelNotifier[T](c),
	}
	return &e
}
