// Package notify fans wheel events out to subscribers.
package notify

import "github.com/park285/piece-wheel/pkg/wheeldto"

// Publisher receives events. Implementations must not block the caller for long.
type Publisher interface {
	Publish(ev wheeldto.Event)
}

// Func adapts a plain function to Publisher.
type Func func(ev wheeldto.Event)

func (f Func) Publish(ev wheeldto.Event) { f(ev) }

// Multi publishes to every non-nil member in order.
type Multi []Publisher

func (m Multi) Publish(ev wheeldto.Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ev)
		}
	}
}

// Discard drops every event.
var Discard Publisher = Func(func(wheeldto.Event) {})
