package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"triage/internal/logging"
	"triage/internal/session"
)

// NodeFunc is one stage: a pure transform from the aggregate state to a
// partial update. Stages never mutate S; the engine is the single writer,
// merging the update right after the stage returns.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// RouterFunc evaluates the merged state and names an outcome, which the
// conditional edge maps to a target node.
type RouterFunc[S any] func(state S) string

// Interrupt is returned (as an error) by a node that needs external input.
// The engine merges the node's partial update, persists a paused snapshot
// with the question, and returns control to the caller without raising.
type Interrupt struct {
	Question string
}

func (i *Interrupt) Error() string { return "interrupt: waiting for user input" }

// Outcome is what a walk hands back to the caller: either a completed
// state or a suspension with the question to relay.
type Outcome[S any] struct {
	SessionID string
	State     S
	Suspended bool
	Question  string
	History   []StepRecord
}

// Engine runs a compiled Graph over domain state S with partial updates U.
type Engine[S, U any] struct {
	graph    *Graph
	nodes    map[string]NodeFunc[S, U]
	routers  map[string]RouterFunc[S]
	apply    func(S, U) S
	cp       Checkpointer[S]
	maxSteps int
}

// Option configures an Engine.
type Option[S, U any] func(*Engine[S, U])

// WithMaxSteps overrides the forward-progress cap (default 25). The cap is
// a backstop: routing is expected to terminate on its own via bounded
// loops.
func WithMaxSteps[S, U any](n int) Option[S, U] {
	return func(e *Engine[S, U]) { e.maxSteps = n }
}

// New builds an Engine. apply is the domain reducer merging a partial
// update into the state; cp persists snapshots across suspensions.
func New[S, U any](g *Graph, apply func(S, U) S, cp Checkpointer[S], opts ...Option[S, U]) *Engine[S, U] {
	e := &Engine[S, U]{
		graph:    g,
		nodes:    make(map[string]NodeFunc[S, U]),
		routers:  make(map[string]RouterFunc[S]),
		apply:    apply,
		cp:       cp,
		maxSteps: 25,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterNode binds a stage function to a declared node.
func (e *Engine[S, U]) RegisterNode(name string, fn NodeFunc[S, U]) error {
	if !e.graph.HasNode(name) {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	e.nodes[name] = fn
	return nil
}

// RegisterRouter binds a decision function to a router name from the DSL.
func (e *Engine[S, U]) RegisterRouter(name string, fn RouterFunc[S]) {
	e.routers[name] = fn
}

// Ready verifies that every declared node and referenced router is bound.
func (e *Engine[S, U]) Ready() error {
	for name := range e.graph.nodes {
		if e.nodes[name] == nil {
			return fmt.Errorf("node %q has no registered function", name)
		}
	}
	for _, r := range e.graph.RouterNames() {
		if e.routers[r] == nil {
			return fmt.Errorf("router %q has no registered function", r)
		}
	}
	return nil
}

// Run starts a fresh walk from the graph's start node.
func (e *Engine[S, U]) Run(ctx context.Context, sessionID string, initial S) (*Outcome[S], error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}
	return e.walk(ctx, sessionID, initial, e.graph.Start, nil)
}

// Resume loads the paused snapshot for sessionID, applies inject (the
// domain's answer-injection hook) to the restored state, and re-enters the
// graph at the checkpointed resume node. Completed sessions are rejected
// with session.ErrCompleted; concurrent resumes with session.ErrBusy.
func (e *Engine[S, U]) Resume(ctx context.Context, sessionID string, inject func(S) S) (*Outcome[S], error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}
	snap, err := e.cp.BeginResume(sessionID)
	if err != nil {
		return nil, err
	}
	start := snap.ResumeNode
	if start == "" {
		start = e.graph.Start
	}
	state := snap.State
	if inject != nil {
		state = inject(state)
	}
	return e.walk(ctx, sessionID, state, start, snap.History)
}

func (e *Engine[S, U]) walk(ctx context.Context, id string, state S, cur string, history []StepRecord) (*Outcome[S], error) {
	logger := logging.New("engine")
	steps := 0

	for {
		if cur == e.graph.Done {
			snap := Snapshot[S]{State: state, Status: session.StatusComplete, History: history}
			if err := e.cp.Save(id, snap); err != nil {
				return nil, fmt.Errorf("checkpoint complete: %w", err)
			}
			return &Outcome[S]{SessionID: id, State: state, History: history}, nil
		}

		steps++
		if steps > e.maxSteps {
			return nil, fmt.Errorf("%w: %d steps at node %q", ErrMaxSteps, e.maxSteps, cur)
		}
		if err := ctx.Err(); err != nil {
			// The last completed stage is already checkpointed; nothing
			// partial is lost.
			return nil, err
		}

		fn, ok := e.nodes[cur]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, cur)
		}

		logger.Debug("running node", "session", id, "node", cur)
		update, err := fn(ctx, state)

		var intr *Interrupt
		if errors.As(err, &intr) {
			state = e.apply(state, update)
			history = append(history, StepRecord{Node: cur, Timestamp: nowStamp()})
			resume, ok := e.graph.NextOf(cur)
			if !ok {
				return nil, fmt.Errorf("node %q suspended but has no successor to resume at", cur)
			}
			snap := Snapshot[S]{
				State:      state,
				Status:     session.StatusPaused,
				Question:   intr.Question,
				ResumeNode: resume,
				History:    history,
			}
			if err := e.cp.Save(id, snap); err != nil {
				return nil, fmt.Errorf("checkpoint paused: %w", err)
			}
			logger.Info("walk suspended", "session", id, "node", cur, "resume_node", resume)
			return &Outcome[S]{
				SessionID: id,
				State:     state,
				Suspended: true,
				Question:  intr.Question,
				History:   history,
			}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", cur, err)
		}

		state = e.apply(state, update)
		history = append(history, StepRecord{Node: cur, Timestamp: nowStamp()})
		if err := e.checkpointRunning(id, state, history); err != nil {
			return nil, err
		}

		next, err := e.transition(ctx, id, cur, &state, &history)
		if err != nil {
			return nil, err
		}
		cur = next
	}
}

// transition resolves the outgoing edge of cur after its update has been
// merged. Fan-out groups run their branches here and return the join node.
func (e *Engine[S, U]) transition(ctx context.Context, id, cur string, state *S, history *[]StepRecord) (string, error) {
	if fo, ok := e.graph.FanOutOf(cur); ok {
		if err := e.runFanOut(ctx, id, fo, state, history); err != nil {
			return "", err
		}
		return fo.Join, nil
	}

	if r, ok := e.graph.RouteOf(cur); ok {
		outcome := e.routers[r.Router](*state)
		target, ok := r.Routes[outcome]
		if !ok {
			return "", fmt.Errorf("%w: router %q returned %q at node %q", ErrNoRoute, r.Router, outcome, cur)
		}
		logging.New("engine").Debug("routed", "session", id, "node", cur, "outcome", outcome, "target", target)
		return target, nil
	}

	if to, ok := e.graph.NextOf(cur); ok {
		return to, nil
	}

	// No outgoing edge: terminal node.
	return e.graph.Done, nil
}

// runFanOut executes the branches concurrently against a snapshot of the
// state, then merges their updates sequentially in declaration order. The
// barrier is the errgroup Wait: the join node never observes a partial
// fan-out.
func (e *Engine[S, U]) runFanOut(ctx context.Context, id string, fo FanOut, state *S, history *[]StepRecord) error {
	updates := make([]U, len(fo.Branches))
	snapshot := *state

	g, gctx := errgroup.WithContext(ctx)
	for i, branch := range fo.Branches {
		fn, ok := e.nodes[branch]
		if !ok {
			return fmt.Errorf("%w: %q", ErrNodeNotFound, branch)
		}
		g.Go(func() error {
			u, err := fn(gctx, snapshot)
			if err != nil {
				var intr *Interrupt
				if errors.As(err, &intr) {
					return fmt.Errorf("branch %s: suspension inside a fan-out is not supported", branch)
				}
				return fmt.Errorf("branch %s: %w", branch, err)
			}
			updates[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, branch := range fo.Branches {
		*state = e.apply(*state, updates[i])
		*history = append(*history, StepRecord{Node: branch, EdgeID: fo.EdgeID, Timestamp: nowStamp()})
	}
	return e.checkpointRunning(id, *state, *history)
}

func (e *Engine[S, U]) checkpointRunning(id string, state S, history []StepRecord) error {
	snap := Snapshot[S]{State: state, Status: session.StatusRunning, History: history}
	if err := e.cp.Save(id, snap); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
