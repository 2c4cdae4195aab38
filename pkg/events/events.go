// Package events implements the callback dispatcher: assert-input/
// assert-added/assert-retracted/evict notifications, the source-note
// reverse map, pattern-matched callback evaluation on assert-added, and
// the Transport seam external UI/WebSocket/LLM collaborators attach to
// without the core depending on them.
package events

import (
	"sync"

	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
	"github.com/gitrdm/kifreasoner/pkg/unify"
)

// Event names one of the four notification kinds the design specifies.
type Event string

const (
	AssertInput     Event = "assert-input"
	AssertAdded     Event = "assert-added"
	AssertRetracted Event = "assert-retracted"
	Evict           Event = "evict"
)

// Notification is what subscribers and pattern callbacks receive.
// Bindings is only populated for pattern-callback matches; plain
// subscribers ignore it.
type Notification struct {
	Kind      Event
	Assertion *kb.Assertion
	Bindings  map[string]term.Term
}

// Transport is the minimal contract an external broadcast layer (the
// out-of-scope WebSocket transport, in particular) implements to receive
// every notification in emission order.
type Transport interface {
	Notify(Notification)
}

type registeredCallback struct {
	pattern term.Term
	handler func(Notification)
}

// Dispatcher is the concurrency-safe event hub. The zero value is not
// usable; construct with New.
type Dispatcher struct {
	mu sync.Mutex

	subscribers map[Event][]func(Notification)
	transports  []Transport
	callbacks   []registeredCallback

	// noteIndex maps a source-note id to the set of assertion ids
	// currently attributed to it, maintained on add/retract/evict.
	noteIndex map[string]map[string]struct{}
}

// New constructs an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[Event][]func(Notification)),
		noteIndex:   make(map[string]map[string]struct{}),
	}
}

// Subscribe registers fn to be called for every notification of kind.
func (d *Dispatcher) Subscribe(kind Event, fn func(Notification)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[kind] = append(d.subscribers[kind], fn)
}

// AddTransport registers t to receive every notification, of any kind, in
// emission order.
func (d *Dispatcher) AddTransport(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transports = append(d.transports, t)
}

// RegisterCallback registers a pattern/handler pair. The handler is
// invoked only on AssertAdded, and only when pattern one-way matches the
// added assertion's kif; it receives the resulting bindings.
func (d *Dispatcher) RegisterCallback(pattern term.Term, handler func(Notification)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = append(d.callbacks, registeredCallback{pattern: pattern, handler: handler})
}

// AssertInputEcho emits the pre-commit assert-input event for a
// submission that is user-like (not a rule or derived fact) and either
// carries a source-note id or has broadcastInput set.
func (d *Dispatcher) AssertInputEcho(pa *kb.PotentialAssertion, broadcastInput bool) {
	if pa.SourceNoteID == "" && !broadcastInput {
		return
	}
	d.emit(Notification{Kind: AssertInput, Assertion: &kb.Assertion{
		Kif: pa.Kif, Priority: pa.Priority, SourceNoteID: pa.SourceNoteID,
		Support: pa.Support, IsEquality: pa.IsEquality, IsOrientedEquality: pa.IsOrientedEquality,
		IsNegated: pa.IsNegated,
	}})
}

// AssertAdded implements kb.EventSink: records a's note-id membership (if
// any), runs pattern callbacks, and forwards the notification.
func (d *Dispatcher) AssertAdded(a *kb.Assertion) {
	d.mu.Lock()
	if a.SourceNoteID != "" {
		set, ok := d.noteIndex[a.SourceNoteID]
		if !ok {
			set = make(map[string]struct{})
			d.noteIndex[a.SourceNoteID] = set
		}
		set[a.ID] = struct{}{}
	}
	callbacks := append([]registeredCallback(nil), d.callbacks...)
	d.mu.Unlock()

	d.emit(Notification{Kind: AssertAdded, Assertion: a})
	d.runCallbacks(callbacks, a)
}

// AssertRetracted implements kb.EventSink.
func (d *Dispatcher) AssertRetracted(a *kb.Assertion) {
	d.forgetNote(a)
	d.emit(Notification{Kind: AssertRetracted, Assertion: a})
}

// Evicted implements kb.EventSink.
func (d *Dispatcher) Evicted(a *kb.Assertion) {
	d.forgetNote(a)
	d.emit(Notification{Kind: Evict, Assertion: a})
}

func (d *Dispatcher) forgetNote(a *kb.Assertion) {
	if a.SourceNoteID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.noteIndex[a.SourceNoteID]
	if !ok {
		return
	}
	delete(set, a.ID)
	if len(set) == 0 {
		delete(d.noteIndex, a.SourceNoteID)
	}
}

// AssertionsForNote returns the ids currently attributed to noteID, used
// to implement "retract by source-note id" at the reasoner layer.
func (d *Dispatcher) AssertionsForNote(noteID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.noteIndex[noteID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (d *Dispatcher) runCallbacks(callbacks []registeredCallback, a *kb.Assertion) {
	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					diag.Log(diag.Callback, "pattern callback panicked", diag.Fields{
						"assertion_id": a.ID,
						"panic":        r,
					})
				}
			}()
			b, ok := unify.Match(cb.pattern, a.Kif, unify.New())
			if !ok {
				return
			}
			cb.handler(Notification{Kind: AssertAdded, Assertion: a, Bindings: b.Flatten()})
		}()
	}
}

func (d *Dispatcher) emit(n Notification) {
	d.mu.Lock()
	var subs []func(Notification)
	subs = append(subs, d.subscribers[n.Kind]...)
	var transports []Transport
	transports = append(transports, d.transports...)
	d.mu.Unlock()

	for _, fn := range subs {
		safeNotify(func() { fn(n) }, n)
	}
	for _, t := range transports {
		tr := t
		safeNotify(func() { tr.Notify(n) }, n)
	}
}

func safeNotify(call func(), n Notification) {
	defer func() {
		if r := recover(); r != nil {
			diag.Log(diag.Callback, "event subscriber panicked", diag.Fields{
				"event": string(n.Kind),
				"panic": r,
			})
		}
	}()
	call()
}
