// Package lifecycle drives a menu request through idle, loading, success and
// error. It owns the single active State and the last submitted request.
//
// Transitions:
//
//	Idle            --Submit-->   Loading
//	Loading         --Complete--> Success | Failed
//	Failed          --Retry-->    Loading (same request)
//	Loading/Success/Failed --Reset--> Idle
//
// Anything else is ErrInvalidTransition. An outcome that arrives after the
// attempt it belongs to was reset is dropped.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"seasonal-menu/internal/menu"
)

// DefaultErrorMessage is shown when a failure carries no description.
const DefaultErrorMessage = "An unexpected error occurred"

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Generator performs the outbound call for a request.
type Generator interface {
	Generate(ctx context.Context, req menu.Request) (menu.Response, error)
}

// Call is a single outbound attempt handed out by Submit or Retry.
type Call struct {
	Attempt uint64
	Request menu.Request
}

// Do runs the call against gen. It never touches controller state; feed the
// result to Controller.Complete.
func (c Call) Do(ctx context.Context, gen Generator) Outcome {
	start := time.Now()
	resp, err := gen.Generate(ctx, c.Request.Clone())
	return Outcome{
		Call:     c,
		Response: resp,
		Err:      err,
		Latency:  time.Since(start),
	}
}

// Outcome is the result of one Call.
type Outcome struct {
	Call     Call
	Response menu.Response
	Err      error
	Latency  time.Duration
}

// Transition describes a state change. Outcome is set when the change was
// caused by a completed call.
type Transition struct {
	From    State
	To      State
	Outcome *Outcome
}

// Listener observes transitions after they happen.
type Listener func(Transition)

// Controller is the single writer of the lifecycle state.
type Controller struct {
	mu        sync.Mutex
	state     State
	attempt   uint64
	listeners []Listener
}

// New returns a controller in the Idle state.
func New() *Controller {
	return &Controller{state: Idle{}}
}

// OnTransition registers fn. Listeners run outside the controller lock, in
// registration order.
func (c *Controller) OnTransition(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns the active state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit moves Idle to Loading(req) and returns the call to perform.
func (c *Controller) Submit(req menu.Request) (Call, error) {
	return c.begin(func(s State) (menu.Request, error) {
		if _, ok := s.(Idle); !ok {
			return menu.Request{}, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.Phase())
		}
		return req.Clone(), nil
	})
}

// Retry moves Failed back to Loading with the stored request unchanged.
func (c *Controller) Retry() (Call, error) {
	return c.begin(func(s State) (menu.Request, error) {
		failed, ok := s.(Failed)
		if !ok {
			return menu.Request{}, fmt.Errorf("%w: retry from %s", ErrInvalidTransition, s.Phase())
		}
		return failed.Request, nil
	})
}

func (c *Controller) begin(check func(State) (menu.Request, error)) (Call, error) {
	c.mu.Lock()
	req, err := check(c.state)
	if err != nil {
		c.mu.Unlock()
		return Call{}, err
	}
	c.attempt++
	call := Call{Attempt: c.attempt, Request: req}
	from := c.state
	c.state = Loading{Request: req}
	to, listeners := c.state, c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, Transition{From: from, To: to})
	return call, nil
}

// Complete applies o if it belongs to the attempt still loading and reports
// whether it did. Stale outcomes are discarded.
func (c *Controller) Complete(o Outcome) bool {
	c.mu.Lock()
	if _, loading := c.state.(Loading); !loading || o.Call.Attempt != c.attempt {
		c.mu.Unlock()
		return false
	}
	from := c.state
	if o.Err != nil {
		c.state = Failed{Request: o.Call.Request, Message: Message(o.Err)}
	} else {
		c.state = Success{Request: o.Call.Request, Response: o.Response}
	}
	to, listeners := c.state, c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, Transition{From: from, To: to, Outcome: &o})
	return true
}

// Reset discards any stored request, response or message and returns to
// Idle. From Idle it does nothing. A call still in flight is not cancelled;
// its outcome will be ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	if _, idle := c.state.(Idle); idle {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = Idle{}
	to, listeners := c.state, c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, Transition{From: from, To: to})
}

// Run submits req, performs the call and applies the outcome in one step.
func (c *Controller) Run(ctx context.Context, gen Generator, req menu.Request) (State, error) {
	call, err := c.Submit(req)
	if err != nil {
		return c.State(), err
	}
	c.Complete(call.Do(ctx, gen))
	return c.State(), nil
}

func (c *Controller) snapshotListeners() []Listener {
	return append([]Listener(nil), c.listeners...)
}

func notify(listeners []Listener, t Transition) {
	for _, fn := range listeners {
		fn(t)
	}
}

type statusCoder interface {
	HTTPStatus() int
}

// Message turns a failure into the text shown to the user. HTTP failures
// always mention their status code.
func Message(err error) string {
	if err == nil {
		return DefaultErrorMessage
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = DefaultErrorMessage
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		code := strconv.Itoa(sc.HTTPStatus())
		if !strings.Contains(msg, code) {
			msg = fmt.Sprintf("%s (HTTP status %s)", msg, code)
		}
	}
	return msg
}
