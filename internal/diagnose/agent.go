package diagnose

import (
	"context"

	"github.com/google/uuid"

	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/knowledge"
	"triage/internal/llm"
	"triage/internal/logging"
	"triage/internal/session"
)

// Agent is the caller boundary over the pipeline: it owns session ids,
// durable checkpoints, and answer injection on resume. The CLI and the MCP
// server both drive diagnoses through it.
type Agent struct {
	pipeline *Pipeline
	cp       engine.StoreCheckpointer[State]
	eng      *engine.Engine[State, Update]
}

// Result is the outcome of a Start or Resume call. When the walk suspends
// for clarification, Completed is false and Question carries what to ask
// the user; when it completes, Report carries the markdown summary.
type Result struct {
	SessionID string
	Completed bool
	Question  string
	Report    string
	State     State
}

// SessionStatus is a non-mutating view of a stored session.
type SessionStatus struct {
	SessionID string
	Status    string
	Phase     Phase
	Question  string
	State     State
}

// NewAgent wires the pipeline against a session store.
func NewAgent(gen llm.Generator, issues IssueSearcher, kb knowledge.Searcher, store session.Store, cfg config.Config) (*Agent, error) {
	pipeline := NewPipeline(gen, issues, kb, cfg)
	cp := engine.StoreCheckpointer[State]{Store: store}
	eng, err := pipeline.BuildEngine(cp)
	if err != nil {
		return nil, err
	}
	return &Agent{pipeline: pipeline, cp: cp, eng: eng}, nil
}

// Start begins a fresh diagnosis for a raw bug description and runs it
// until it completes or suspends for clarification.
func (a *Agent) Start(ctx context.Context, description string) (*Result, error) {
	sessionID := uuid.NewString()
	logging.New("agent").Info("starting diagnosis", "session", sessionID)

	initial := State{
		Messages:    []Message{{Role: "user", Content: description}},
		MissingInfo: []string{},
		Phase:       PhaseIntake,
	}
	out, err := a.eng.Run(ctx, sessionID, initial)
	if err != nil {
		return nil, err
	}
	return resultFrom(out), nil
}

// Resume continues a suspended session with the user's answer. The answer
// is folded into the bug report's additional context and the walk
// re-enters at the diagnoser; evidence gathered before the suspension is
// not re-fetched. Completed sessions return session.ErrCompleted.
func (a *Agent) Resume(ctx context.Context, sessionID, answer string) (*Result, error) {
	logging.New("agent").Info("resuming diagnosis", "session", sessionID)

	out, err := a.eng.Resume(ctx, sessionID, func(s State) State {
		return injectAnswer(s, answer)
	})
	if err != nil {
		return nil, err
	}
	return resultFrom(out), nil
}

// Status reads a session without touching its lifecycle.
func (a *Agent) Status(ctx context.Context, sessionID string) (*SessionStatus, error) {
	snap, status, err := a.cp.LoadSnapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionStatus{
		SessionID: sessionID,
		Status:    status,
		Phase:     snap.State.Phase,
		Question:  snap.Question,
		State:     snap.State,
	}, nil
}

// injectAnswer folds a clarification answer into the restored state: the
// answer joins the conversation log and the bug report's additional
// context, and the input flags are cleared.
func injectAnswer(s State, answer string) State {
	report := BugReport{}
	if s.BugReport != nil {
		report = *s.BugReport
	}
	if report.AdditionalContext != "" {
		report.AdditionalContext += "\n\n"
	}
	report.AdditionalContext += "User clarification: " + answer
	s.BugReport = &report

	s.Messages = append(s.Messages, Message{Role: "user", Content: answer})
	s.NeedsUserInput = false
	s.UserQuestion = ""
	s.Phase = PhaseClassification
	return s
}

func resultFrom(out *engine.Outcome[State]) *Result {
	r := &Result{
		SessionID: out.SessionID,
		Completed: !out.Suspended,
		Question:  out.Question,
		State:     out.State,
	}
	if r.Completed {
		r.Report = out.State.FinalReport()
	}
	return r
}
