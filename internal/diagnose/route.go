package diagnose

// maxRouterAttempts bounds how many times the router sends the walk back
// for clarification before settling for the hypotheses it has.
const maxRouterAttempts = 2

// afterDiagnosis decides where the walk goes once hypotheses exist. This
// routing is authoritative; the phase recorded by the diagnoser is
// informational. A high-likelihood top hypothesis earns a resolution plan;
// otherwise the walk asks the user for more detail until the attempt
// budget runs out, then ends with the ranked hypotheses.
func (p *Pipeline) afterDiagnosis(s State) string {
	if len(s.Hypotheses) > 0 && s.Hypotheses[0].Likelihood == LikelihoodHigh {
		return "resolution"
	}
	if s.InfoAttempts < maxRouterAttempts {
		return "gathering"
	}
	return "end"
}
