package engine

// Mastery thresholds for the quiz bonus tiers.
var tierThresholds = []float64{0.4, 0.7, 0.9}

// Tier maps a fraction of correctly answered quiz questions to a mastery
// tier: the index of the first threshold strictly greater than the fraction,
// or 3 once all thresholds are met.
func Tier(fraction float64) int {
	for i, threshold := range tierThresholds {
		if threshold > fraction {
			return i
		}
	}
	return len(tierThresholds)
}

// QuizBonus computes the bonus for one quiz submission. The bonus rewards
// crossing a mastery tier between the fraction solved before this submission
// and the fraction solved after it; questions solved in an earlier attempt
// count toward both fractions but earn no new points. Hard courses double
// the bonus.
func QuizBonus(oldSolved, newlySolved, totalQuestions, difficulty int) int {
	if totalQuestions <= 0 {
		return 0
	}
	multiplier := 1
	if difficulty == difficultyHard {
		multiplier = 2
	}
	oldTier := Tier(float64(oldSolved) / float64(totalQuestions))
	newTier := Tier(float64(oldSolved+newlySolved) / float64(totalQuestions))
	bonus := 5 * multiplier * (newTier - oldTier)
	if bonus < 0 {
		return 0
	}
	return bonus
}

const difficultyHard = 2

// QuizSizeValid reports whether a quiz with n questions may be served.
func QuizSizeValid(n int) bool {
	return n >= 5 && n <= 20
}
