package diagnose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage/internal/github"
	"triage/internal/knowledge"
	"triage/internal/session"
)

func newTestAgent(t *testing.T, gen *scriptedGen) (*Agent, session.Store) {
	t.Helper()
	store := session.NewMemStore()
	issues := &stubIssues{results: []github.Issue{
		{Number: 42, Title: "timeouts on large payloads", URL: "https://example.com/42", State: "closed", RelevanceScore: 1.0},
	}}
	kb := &stubKB{hits: []knowledge.Hit{
		{Content: "TimeoutError: request timed out", Solution: "raise the client timeout", Source: "curated", Distance: 0.4},
	}}
	agent, err := NewAgent(gen, issues, kb, store, testConfig())
	require.NoError(t, err)
	return agent, store
}

func TestAgentCompletesHighConfidenceRun(t *testing.T) {
	gen := &scriptedGen{
		intake:     intakeJSON,
		classify:   classifyHighJSON,
		diagnosis:  []string{diagnosisHighJSON},
		resolution: resolutionJSON,
	}
	agent, store := newTestAgent(t, gen)

	res, err := agent.Start(context.Background(), "my request to api.example.com times out after 10s")
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, PhaseComplete, res.State.Phase)
	require.NotNil(t, res.State.SelectedHypothesis)
	assert.Equal(t, LikelihoodHigh, res.State.SelectedHypothesis.Likelihood)
	assert.Len(t, res.State.ResolutionPlan, 2)

	assert.Contains(t, res.Report, "# Diagnostic Report")
	assert.Contains(t, res.Report, "## Resolution Plan")
	assert.Contains(t, res.Report, "Raise the client timeout to 30s")

	rec, err := store.Load(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusComplete, rec.Status)
}

func TestAgentSuspendsAndResumes(t *testing.T) {
	gen := &scriptedGen{
		intake:     intakeJSON,
		classify:   classifyLowJSON,
		diagnosis:  []string{diagnosisMediumJSON, diagnosisHighJSON},
		question:   "Which library version are you running?",
		resolution: resolutionJSON,
	}
	agent, store := newTestAgent(t, gen)

	res, err := agent.Start(context.Background(), "something times out, not sure where")
	require.NoError(t, err)

	require.False(t, res.Completed)
	assert.Equal(t, "Which library version are you running?", res.Question)
	assert.Equal(t, 1, res.State.InfoAttempts)

	rec, err := store.Load(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusPaused, rec.Status)
	assert.Equal(t, "diagnoser", rec.ResumeNode)

	status, err := agent.Status(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusPaused, status.Status)
	assert.Equal(t, res.Question, status.Question)

	final, err := agent.Resume(context.Background(), res.SessionID, "langgraph 0.2.1")
	require.NoError(t, err)

	assert.True(t, final.Completed)
	assert.Equal(t, PhaseComplete, final.State.Phase)
	require.NotNil(t, final.State.BugReport)
	assert.Equal(t, "User clarification: langgraph 0.2.1", final.State.BugReport.AdditionalContext)
	assert.Contains(t, final.Report, "## Resolution Plan")

	// The clarification exchange stays in the conversation log.
	var roles []string
	for _, m := range final.State.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []string{"user", "assistant", "user", "assistant"}, roles)
}

func TestAgentEndsAfterAttemptBudget(t *testing.T) {
	gen := &scriptedGen{
		intake:    intakeJSON,
		classify:  classifyLowJSON,
		diagnosis: []string{diagnosisMediumJSON, diagnosisMediumJSON, diagnosisMediumJSON},
		question:  "Anything else you can share?",
	}
	agent, _ := newTestAgent(t, gen)

	res, err := agent.Start(context.Background(), "vague report")
	require.NoError(t, err)
	require.False(t, res.Completed)

	res, err = agent.Resume(context.Background(), res.SessionID, "not really")
	require.NoError(t, err)
	require.False(t, res.Completed)
	assert.Equal(t, 2, res.State.InfoAttempts)

	// Third diagnosis exhausts the router budget: the walk ends with the
	// ranked hypotheses and no resolution plan.
	final, err := agent.Resume(context.Background(), res.SessionID, "still nothing")
	require.NoError(t, err)
	assert.True(t, final.Completed)
	assert.NotEmpty(t, final.State.Hypotheses)
	assert.Empty(t, final.State.ResolutionPlan)
	assert.Equal(t, PhaseComplete, final.State.Phase)
}

func TestAgentResumeCompletedRejected(t *testing.T) {
	gen := &scriptedGen{
		intake:     intakeJSON,
		classify:   classifyHighJSON,
		diagnosis:  []string{diagnosisHighJSON},
		resolution: resolutionJSON,
	}
	agent, _ := newTestAgent(t, gen)

	res, err := agent.Start(context.Background(), "detailed report")
	require.NoError(t, err)
	require.True(t, res.Completed)

	_, err = agent.Resume(context.Background(), res.SessionID, "one more thing")
	assert.ErrorIs(t, err, session.ErrCompleted)
}

func TestAgentResumeUnknownSession(t *testing.T) {
	agent, _ := newTestAgent(t, &scriptedGen{})
	_, err := agent.Resume(context.Background(), "no-such-session", "hello")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAgentStatusUnknownSession(t *testing.T) {
	agent, _ := newTestAgent(t, &scriptedGen{})
	_, err := agent.Status(context.Background(), "no-such-session")
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestAgentEvidenceNotRefetchedOnResume(t *testing.T) {
	issues := &countingIssues{}
	kb := &stubKB{}
	gen := &scriptedGen{
		intake:     intakeJSON,
		classify:   classifyLowJSON,
		diagnosis:  []string{diagnosisMediumJSON, diagnosisHighJSON},
		question:   "More details?",
		resolution: resolutionJSON,
	}
	store := session.NewMemStore()
	agent, err := NewAgent(gen, issues, kb, store, testConfig())
	require.NoError(t, err)

	res, err := agent.Start(context.Background(), "my langgraph checkpoint times out")
	require.NoError(t, err)
	require.False(t, res.Completed)
	searchesBeforeResume := issues.next

	final, err := agent.Resume(context.Background(), res.SessionID, "version 0.2.1")
	require.NoError(t, err)
	require.True(t, final.Completed)

	assert.Equal(t, searchesBeforeResume, issues.next,
		"resume must re-enter at the diagnoser without re-running searches")
	if !strings.Contains(final.Report, "# Diagnostic Report") {
		t.Errorf("report missing header")
	}
}
