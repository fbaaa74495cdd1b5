// Package notifier provides a synchronous publish/subscribe hub.
//
// Messages are free-form strings agreed on by publishers and subscribers
// (for example "SoundManager.OnBgmPlay"); the payload is untyped and it is
// up to each subscriber to type-check it.
package notifier

import "slices"

// Subscriber receives notifications.
//
// Subscribers are compared with ==, so implementations should be pointer
// types. Use Func to subscribe a plain function.
type Subscriber interface {
	Notify(message string, payload any)
}

// Func wraps fn in a Subscriber. The returned value is the handle to pass to
// RemoveSubscriber; wrapping the same function twice yields two distinct
// subscribers.
func Func(fn func(message string, payload any)) Subscriber {
	return &funcSubscriber{fn: fn}
}

type funcSubscriber struct {
	fn func(message string, payload any)
}

func (f *funcSubscriber) Notify(message string, payload any) {
	f.fn(message, payload)
}

type pendingOp struct {
	sub Subscriber
	add bool
}

// Notifier fans out messages to subscribers in registration order.
//
// AddSubscriber and RemoveSubscriber calls made from inside a notification
// are queued and applied once the outermost NotifySubscribers returns, so a
// fan-out always reaches exactly the subscribers registered when it started.
//
// A Notifier is not safe for concurrent use.
type Notifier struct {
	subs    []Subscriber
	depth   int
	pending []pendingOp
}

// New creates an empty notifier.
func New() *Notifier {
	return &Notifier{}
}

// AddSubscriber registers s. Adding an already registered subscriber does
// nothing.
func (n *Notifier) AddSubscriber(s Subscriber) {
	if s == nil {
		return
	}
	if n.depth > 0 {
		n.pending = append(n.pending, pendingOp{sub: s, add: true})
		return
	}
	n.add(s)
}

// RemoveSubscriber unregisters s. Removing an unknown subscriber does
// nothing.
func (n *Notifier) RemoveSubscriber(s Subscriber) {
	if s == nil {
		return
	}
	if n.depth > 0 {
		n.pending = append(n.pending, pendingOp{sub: s})
		return
	}
	n.remove(s)
}

// NotifySubscribers calls every subscriber with message and payload, in
// registration order. A panicking subscriber is not recovered; the panic
// reaches the caller after the notifier has restored its bookkeeping.
func (n *Notifier) NotifySubscribers(message string, payload any) {
	n.depth++
	defer n.leave()

	for _, s := range n.subs {
		s.Notify(message, payload)
	}
}

// Len returns the number of registered subscribers.
func (n *Notifier) Len() int {
	return len(n.subs)
}

// Has reports whether s is registered.
func (n *Notifier) Has(s Subscriber) bool {
	return n.index(s) >= 0
}

func (n *Notifier) leave() {
	n.depth--
	if n.depth > 0 {
		return
	}
	ops := n.pending
	n.pending = nil
	for _, op := range ops {
		if op.add {
			n.add(op.sub)
		} else {
			n.remove(op.sub)
		}
	}
}

func (n *Notifier) add(s Subscriber) {
	if n.index(s) >= 0 {
		return
	}
	n.subs = append(n.subs, s)
}

func (n *Notifier) remove(s Subscriber) {
	i := n.index(s)
	if i < 0 {
		return
	}
	n.subs = slices.Delete(n.subs, i, i+1)
}

func (n *Notifier) index(s Subscriber) int {
	for i, sub := range n.subs {
		if sub == s {
			return i
		}
	}
	return -1
}
