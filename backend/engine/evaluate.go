package engine

// Evaluator decides whether a submission answers a question correctly. Each
// question kind brings its own implementation; evaluation never has side
// effects, recording the try is the caller's job.
type Evaluator interface {
	Evaluate(selected []uint) bool
}

// MultipleChoice evaluates a submission against the set of correct answer
// ids. The selection is treated as a set, so repeating an id neither helps
// nor hurts; it must equal the correct set exactly.
type MultipleChoice struct {
	CorrectIDs []uint
}

func (m MultipleChoice) Evaluate(selected []uint) bool {
	if len(m.CorrectIDs) == 0 {
		return false
	}
	want := make(map[uint]bool, len(m.CorrectIDs))
	for _, id := range m.CorrectIDs {
		want[id] = true
	}
	got := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if !want[id] {
			return false
		}
		got[id] = true
	}
	return len(got) == len(want)
}
