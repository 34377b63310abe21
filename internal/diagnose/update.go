package diagnose

import "triage/internal/github"

// Update is a partial state delta returned by a stage. Nil pointer fields
// are absent and leave the state untouched; Messages is append-only so the
// conversation log is never lost to a later stage.
type Update struct {
	Messages []Message

	BugReport        *BugReport
	Classification   *Classification
	LibraryDetection *LibraryDetection

	MissingInfo  *[]string
	InfoAttempts *int

	RelatedIssues    *[]github.Issue
	GitHubConfidence *float64
	KnowledgeResults *[]KnowledgeResult

	Hypotheses          *[]Hypothesis
	SelectedHypothesis  *Hypothesis
	ConfidenceBreakdown *ConfidenceBreakdown

	ResolutionPlan *[]ResolutionStep

	Phase          Phase
	NeedsUserInput *bool
	UserQuestion   *string
}

// Apply merges a partial update into the state: Messages append, every
// other present field replaces. State is passed and returned by value;
// concurrent stages never share the merged copy.
func Apply(s State, u Update) State {
	s.Messages = append(s.Messages, u.Messages...)

	if u.BugReport != nil {
		s.BugReport = u.BugReport
	}
	if u.Classification != nil {
		s.Classification = u.Classification
	}
	if u.LibraryDetection != nil {
		s.LibraryDetection = u.LibraryDetection
	}
	if u.MissingInfo != nil {
		s.MissingInfo = *u.MissingInfo
	}
	if u.InfoAttempts != nil {
		s.InfoAttempts = *u.InfoAttempts
	}
	if u.RelatedIssues != nil {
		s.RelatedIssues = *u.RelatedIssues
	}
	if u.GitHubConfidence != nil {
		s.GitHubConfidence = *u.GitHubConfidence
	}
	if u.KnowledgeResults != nil {
		s.KnowledgeResults = *u.KnowledgeResults
	}
	if u.Hypotheses != nil {
		s.Hypotheses = *u.Hypotheses
	}
	if u.SelectedHypothesis != nil {
		s.SelectedHypothesis = u.SelectedHypothesis
	}
	if u.ConfidenceBreakdown != nil {
		s.ConfidenceBreakdown = u.ConfidenceBreakdown
	}
	if u.ResolutionPlan != nil {
		s.ResolutionPlan = *u.ResolutionPlan
	}
	if u.Phase != "" {
		s.Phase = u.Phase
	}
	if u.NeedsUserInput != nil {
		s.NeedsUserInput = *u.NeedsUserInput
	}
	if u.UserQuestion != nil {
		s.UserQuestion = *u.UserQuestion
	}
	return s
}

func ptr[T any](v T) *T { return &v }
