package entity

// Assessment score bounds. A score of 1 is maximally bearish, 10 maximally
// bullish, and NeutralScore is the default applied whenever the AI reply
// could not be parsed or the backend call failed.
const (
	MinScore     = 1
	MaxScore     = 10
	NeutralScore = 5
)

// AIAssessment is the structured judgment extracted from the AI reply.
// Every field has a defined default, so a parse failure never yields a
// missing field; construct values through the assess package.
type AIAssessment struct {
	// Score is an integer in [MinScore, MaxScore].
	Score int

	// Judgment is the one-line core verdict.
	Judgment string

	// CausalChain explains the expected transmission ("A → B → C").
	CausalChain string

	// Valuation relates the news to the current pricing.
	Valuation string

	// Risk names the largest open uncertainty.
	Risk string

	// Recommendation is the suggested stance for holders and watchers.
	Recommendation string

	// Defaulted is true when the backend call or the full parse failed and
	// the assessment was populated entirely from defaults.
	Defaulted bool
}

// ClampScore coerces an arbitrary integer into the valid score range.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
