// Package reasoner implements the forward-chaining inference engine: rule
// storage, the bounded commit and task pipelines, MatchAntecedent and
// ApplyOrderedRewrite derivation, and the quantifier/validation handling
// applied to submissions before they reach the knowledge base.
package reasoner

import (
	"context"
	"sync"
	"time"

	"github.com/gitrdm/kifreasoner/internal/config"
	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/internal/parallel"
	"github.com/gitrdm/kifreasoner/pkg/events"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

// Engine owns the rule set, the commit and task pipelines, and the
// worker goroutines that drive them, wired to a KnowledgeBase and an
// events.Dispatcher supplied at construction.
type Engine struct {
	cfg    config.Tunables
	kb     *kb.KnowledgeBase
	events *events.Dispatcher
	pool   *parallel.Pool
	tasks  *TaskQueue
	pause  *pauseGate
	ids    *idGenerator

	commitQueue chan *kb.PotentialAssertion

	rulesMu sync.RWMutex
	rules   map[string]*kb.Rule

	orientedEqMu sync.RWMutex
	orientedEq   map[string]*kb.Assertion

	broadcastInput bool

	statusMu sync.Mutex
	status   string
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Options configures a new Engine.
type Options struct {
	Config         config.Tunables
	KB             *kb.KnowledgeBase
	Dispatcher     *events.Dispatcher
	BroadcastInput bool
}

// New constructs an Engine. The caller is responsible for having built KB
// with a Sink that forwards to Dispatcher (see cmd/kifreasoner for the
// standard wiring).
func New(opts Options) *Engine {
	e := &Engine{
		cfg:            opts.Config,
		kb:             opts.KB,
		events:         opts.Dispatcher,
		pool:           parallel.New(opts.Config.InferenceWorkers),
		tasks:          NewTaskQueue(opts.Config.TaskQueueCapacity),
		pause:          newPauseGate(),
		ids:            newIDGenerator(),
		commitQueue:    make(chan *kb.PotentialAssertion, opts.Config.CommitQueueCapacity),
		rules:          make(map[string]*kb.Rule),
		orientedEq:     make(map[string]*kb.Assertion),
		broadcastInput: opts.BroadcastInput,
		status:         "stopped",
	}
	e.events.Subscribe(events.AssertAdded, e.onOrientedEqAdded)
	e.events.Subscribe(events.AssertRetracted, e.onOrientedEqRemoved)
	e.events.Subscribe(events.Evict, e.onOrientedEqRemoved)
	return e
}

// Start launches the commit worker and the inference dispatcher. It is an
// error to call Start while already running.
func (e *Engine) Start(ctx context.Context) error {
	e.statusMu.Lock()
	if e.running {
		e.statusMu.Unlock()
		return errAlreadyRunning
	}
	e.running = true
	e.status = "running"
	e.stopCh = make(chan struct{})
	e.statusMu.Unlock()

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.commitLoop(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.dispatchLoop(ctx)
	}()
	return nil
}

// Stop cooperatively shuts the engine down: the running flag is cleared,
// the pause condition is notified so no loop blocks forever, the task
// queue is closed so the dispatcher drains and exits, and the worker pool
// is given ctx's deadline to finish in-flight work before Stop returns.
func (e *Engine) Stop(ctx context.Context) error {
	e.statusMu.Lock()
	if !e.running {
		e.statusMu.Unlock()
		return nil
	}
	e.running = false
	e.status = "stopped"
	close(e.stopCh)
	e.statusMu.Unlock()

	e.tasks.Close()
	e.pause.Resume()
	e.wg.Wait()
	return e.pool.ShutdownContext(ctx)
}

// Pause sets the global pause flag both loops check at their
// quiescence point.
func (e *Engine) Pause() {
	e.pause.Pause()
	e.statusMu.Lock()
	e.status = "paused"
	e.statusMu.Unlock()
}

// Resume clears the pause flag and wakes both loops.
func (e *Engine) Resume() {
	e.pause.Resume()
	e.statusMu.Lock()
	if e.running {
		e.status = "running"
	}
	e.statusMu.Unlock()
}

// Status returns the engine's current status string.
func (e *Engine) Status() string {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

func (e *Engine) commitLoop(ctx context.Context) {
	for {
		e.pause.Wait()
		select {
		case pa, ok := <-e.commitQueue:
			if !ok {
				return
			}
			e.handleCommit(pa)
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// dispatchLoop is the single priority-order-preserving popper; actual
// task dispatch runs concurrently across the fixed worker pool, giving
// the "max(2, cpus/2) inference workers running concurrently" behavior
// without racing multiple poppers against the priority heap.
func (e *Engine) dispatchLoop(ctx context.Context) {
	for {
		e.pause.Wait()
		task, ok := e.tasks.Pop()
		if !ok {
			return
		}
		t := task
		if err := e.pool.Submit(ctx, func() { e.dispatchTask(t) }); err != nil {
			diag.Log(diag.InternalInvariant, "failed to submit inference task", diag.Fields{
				"error": err.Error(),
			})
		}
	}
}

func (e *Engine) dispatchTask(t Task) {
	switch tt := t.(type) {
	case *MatchAntecedentTask:
		e.runMatchAntecedentTask(tt)
	case *ApplyOrderedRewriteTask:
		e.runApplyOrderedRewriteTask(tt)
	default:
		diag.Log(diag.InternalInvariant, "unknown task kind dispatched", nil)
	}
}

// handleCommit generates the newID per the source-id convention (input-
// for user submissions, fact- for rule/rewrite derivations), stamps the
// timestamp, and calls KB.Commit.
func (e *Engine) handleCommit(pa *kb.PotentialAssertion) {
	var id string
	if pa.SourceID == "" {
		id = e.ids.inputID()
	} else {
		id = e.ids.factID(pa.IsEquality, pa.IsNegated)
	}
	a, err := e.kb.Commit(pa, id, time.Now().UnixNano())
	if err != nil {
		diag.Log(diag.Capacity, "commit rejected", diag.Fields{"error": err.Error(), "kif": pa.Kif.String()})
		return
	}
	if a == nil {
		return
	}
	e.generateTasksForNewAssertion(a)
}

// enqueueCommit bounds the wait on the commit queue to the configured
// timeout, dropping the potential with a diagnostic if it would overflow.
func (e *Engine) enqueueCommit(pa *kb.PotentialAssertion) error {
	timer := time.NewTimer(time.Duration(e.cfg.CommitEnqueueTimeoutMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case e.commitQueue <- pa:
		return nil
	case <-timer.C:
		diag.Log(diag.Capacity, "commit queue full, dropping potential assertion", diag.Fields{
			"kif": pa.Kif.String(),
		})
		return errCommitQueueFull
	}
}

// SubmitInput is the entry point for user-submitted kif: it expands
// top-level exists/forall quantifiers, validates groundness, and enqueues
// the result for commit.
func (e *Engine) SubmitInput(t term.Term, priority float64, sourceNoteID string) error {
	expanded, asRule, handled := e.expandQuantifier(t)
	if handled {
		if expanded == nil {
			return nil
		}
		if asRule {
			formList, ok := expanded.(*term.List)
			if !ok {
				diag.Log(diag.Validation, "quantified rule form is not a list", diag.Fields{"kif": expanded.String()})
				return nil
			}
			return e.SubmitRule(formList)
		}
		return e.SubmitInput(expanded, priority, sourceNoteID)
	}

	lst, ok := t.(*term.List)
	if !ok {
		diag.Log(diag.Validation, "input must be a kif list", diag.Fields{"term": t.String()})
		return nil
	}
	if lst.ContainsVariable() {
		diag.Log(diag.Validation, "non-ground, non-quantified input ignored", diag.Fields{"kif": lst.String()})
		return nil
	}

	isNegated, isEquality, isOrientedEquality := deriveFlags(lst)
	pa := &kb.PotentialAssertion{
		Kif:                lst,
		Priority:           priority,
		Support:            map[string]struct{}{},
		SourceNoteID:       sourceNoteID,
		IsEquality:         isEquality,
		IsOrientedEquality: isOrientedEquality,
		IsNegated:          isNegated,
	}
	e.events.AssertInputEcho(pa, e.broadcastInput)
	return e.enqueueCommit(pa)
}

// SubmitRule parses and validates form, skipping registration if an
// identical form is already registered, and triggers §4.5.3 step 1
// against the existing assertion set for every direction-rule added.
func (e *Engine) SubmitRule(form *term.List) error {
	e.rulesMu.RLock()
	for _, r := range e.rules {
		if r.Form.Equal(form) {
			e.rulesMu.RUnlock()
			return nil
		}
	}
	e.rulesMu.RUnlock()

	newRules, err := parseRuleForms(e.ids, form)
	if err != nil {
		diag.Log(diag.Validation, "rule form rejected", diag.Fields{"error": err.Error(), "form": form.String()})
		return err
	}

	e.rulesMu.Lock()
	for _, r := range newRules {
		e.rules[r.ID] = r
	}
	e.rulesMu.Unlock()

	for _, r := range newRules {
		e.generateTasksForNewRule(r)
	}
	return nil
}

// RetractRule removes every rule registered under form, reporting whether
// any was removed.
func (e *Engine) RetractRule(form *term.List) bool {
	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()
	removed := false
	for id, r := range e.rules {
		if r.Form.Equal(form) {
			delete(e.rules, id)
			removed = true
		}
	}
	return removed
}

// RetractByID cascade-retracts a single assertion, reporting whether it
// was present.
func (e *Engine) RetractByID(id string) bool {
	return e.kb.Retract(id) != nil
}

// RetractByNote cascade-retracts every assertion currently attributed to
// noteID, returning how many retractions actually removed something.
func (e *Engine) RetractByNote(noteID string) int {
	count := 0
	for _, id := range e.events.AssertionsForNote(noteID) {
		if e.kb.Retract(id) != nil {
			count++
		}
	}
	return count
}

// RegisterCallback registers a pattern-matched callback fired on every
// committed assertion matching pattern.
func (e *Engine) RegisterCallback(pattern term.Term, handler func(events.Notification)) {
	e.events.RegisterCallback(pattern, handler)
}

// KB exposes the underlying knowledge base for read-only queries from
// callers that need direct access (e.g. a front end listing assertions).
func (e *Engine) KB() *kb.KnowledgeBase { return e.kb }
