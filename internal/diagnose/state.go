// Package diagnose implements the staged bug-report diagnostic pipeline:
// intake, classification, parallel evidence gathering (GitHub issues and
// the error-pattern knowledge base), hypothesis generation, a bounded
// clarification loop, and resolution planning. The aggregate State flows
// through the engine; each stage returns a partial Update merged by Apply.
package diagnose

import (
	"triage/internal/github"
)

// Phase labels the workflow stage recorded in the state.
type Phase string

const (
	PhaseIntake         Phase = "intake"
	PhaseClassification Phase = "classification"
	PhaseGathering      Phase = "gathering"
	PhaseSearching      Phase = "searching"
	PhaseDiagnosis      Phase = "diagnosis"
	PhaseResolution     Phase = "resolution"
	PhaseComplete       Phase = "complete"
)

// Message is one turn of the conversation log.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// BugReport is the structured form of the user's description, extracted by
// the intake stage. RawDescription is always preserved; the other fields
// may be empty when the user did not provide them.
type BugReport struct {
	RawDescription    string            `json:"raw_description"`
	Title             string            `json:"title,omitempty"`
	StepsToReproduce  []string          `json:"steps_to_reproduce,omitempty"`
	ExpectedBehavior  string            `json:"expected_behavior,omitempty"`
	ActualBehavior    string            `json:"actual_behavior,omitempty"`
	Environment       map[string]string `json:"environment,omitempty"`
	ErrorMessage      string            `json:"error_message,omitempty"`
	StackTrace        string            `json:"stack_trace,omitempty"`
	AdditionalContext string            `json:"additional_context,omitempty"`
}

// Failure categories assigned by the classifier.
const (
	FailureAPI           = "api"
	FailureVersion       = "version"
	FailureDependency    = "dependency"
	FailureRuntime       = "runtime"
	FailureConfiguration = "configuration"
	FailureUnknown       = "unknown"
)

// Classification is the classifier's verdict on the failure category.
type Classification struct {
	FailureType string  `json:"failure_type"`
	Confidence  float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning   string  `json:"reasoning"`
}

// LibraryDetection names the ecosystem libraries implicated by the report
// text, used to target issue searches.
type LibraryDetection struct {
	Primary      string   `json:"primary"` // "unknown" when nothing matched
	AllLibraries []string `json:"all_libraries"`
	Components   []string `json:"components"`
	Confidence   float64  `json:"confidence"`
}

// KnowledgeResult is one knowledge-base match: a known error pattern, its
// recorded solution, and how similar it is to the query (0.0 to 1.0).
type KnowledgeResult struct {
	ErrorPattern string  `json:"error_pattern"`
	Solution     string  `json:"solution"`
	Source       string  `json:"source"`
	Similarity   float64 `json:"similarity_score"`
}

// Likelihood tiers for hypotheses.
const (
	LikelihoodHigh   = "high"
	LikelihoodMedium = "medium"
	LikelihoodLow    = "low"
)

// Hypothesis is one candidate root cause.
type Hypothesis struct {
	Description         string   `json:"description"`
	Likelihood          string   `json:"likelihood"`
	Evidence            []string `json:"evidence"`
	RequiredValidations []string `json:"required_validations"`
}

// ConfidenceBreakdown decomposes the diagnosis confidence by evidence
// source so the user can see what the verdict rests on.
type ConfidenceBreakdown struct {
	Classification   float64 `json:"classification"`
	GitHub           float64 `json:"github"`
	Knowledge        float64 `json:"knowledge"`
	LibraryDetection float64 `json:"library_detection"`
	Overall          float64 `json:"overall"`
	Explanation      string  `json:"explanation"`
}

// ResolutionStep is one ordered action in the fix plan.
type ResolutionStep struct {
	Order           int    `json:"order"`
	Action          string `json:"action"`
	Rationale       string `json:"rationale"`
	ExpectedOutcome string `json:"expected_outcome"`
}

// State is the aggregate diagnostic state. It is JSON-serializable in full
// so a suspended session can be checkpointed and restored byte-for-byte.
type State struct {
	Messages []Message `json:"messages"`

	BugReport        *BugReport        `json:"bug_report,omitempty"`
	Classification   *Classification   `json:"classification,omitempty"`
	LibraryDetection *LibraryDetection `json:"library_detection,omitempty"`

	MissingInfo  []string `json:"missing_info"`
	InfoAttempts int      `json:"info_gathering_attempts"`

	RelatedIssues    []github.Issue    `json:"related_issues"`
	GitHubConfidence float64           `json:"github_confidence"`
	KnowledgeResults []KnowledgeResult `json:"knowledge_results"`

	Hypotheses          []Hypothesis         `json:"hypotheses"`
	SelectedHypothesis  *Hypothesis          `json:"selected_hypothesis,omitempty"`
	ConfidenceBreakdown *ConfidenceBreakdown `json:"confidence_breakdown,omitempty"`

	ResolutionPlan []ResolutionStep `json:"resolution_plan"`

	Phase          Phase  `json:"current_phase"`
	NeedsUserInput bool   `json:"needs_user_input"`
	UserQuestion   string `json:"user_question,omitempty"`
}

// FinalReport returns the last assistant message, which carries the
// markdown diagnostic report once the walk completes.
func (s State) FinalReport() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "assistant" {
			return s.Messages[i].Content
		}
	}
	return ""
}

// lastUserMessage returns the most recent user turn, the raw bug report on
// a fresh walk.
func (s State) lastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" {
			return s.Messages[i].Content
		}
	}
	return ""
}
