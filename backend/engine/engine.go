// Package engine holds the progression and scoring rules for courses. It
// works on plain snapshots of a course and a user's solved history, so the
// rules stay testable without a database behind them.
package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a module or question index does not resolve
// inside the course snapshot.
var ErrNotFound = errors.New("question not found")

// CountMismatchError is returned when a quiz submission does not carry one
// answer per quiz question.
type CountMismatchError struct {
	Expected int
	Received int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("the quiz has %d questions and your submission has %d", e.Expected, e.Received)
}

// QuestionRef is the engine's view of one question inside a module.
type QuestionRef struct {
	ID       uint
	Points   int
	Feedback string
}

// ModuleRef is the engine's view of one module: its questions in course order.
type ModuleRef struct {
	ID        uint
	Questions []QuestionRef
}

// Course is the snapshot the engine navigates: modules and questions in
// their declared order, plus what the quiz bonus needs.
type Course struct {
	ID            uint
	Difficulty    int
	Modules       []ModuleRef
	QuizQuestions int
}

// SolvedSet is the set of question ids a user has at least one solved try for.
type SolvedSet map[uint]bool

// QuestionAt resolves the question at the given 0-based module and question
// indices, or ErrNotFound when either index is out of range.
func (c *Course) QuestionAt(moduleIdx, questionIdx int) (QuestionRef, error) {
	if moduleIdx < 0 || moduleIdx >= len(c.Modules) {
		return QuestionRef{}, ErrNotFound
	}
	module := c.Modules[moduleIdx]
	if questionIdx < 0 || questionIdx >= len(module.Questions) {
		return QuestionRef{}, ErrNotFound
	}
	return module.Questions[questionIdx], nil
}

// CanAccess decides whether a user with the given solved history may attempt
// the question at (moduleIdx, questionIdx). The first question of the first
// module is always open. Every other question requires a solved try for its
// immediate predecessor: the previous question in the same module, or the
// last question of the previous module. A malformed course where no such
// predecessor exists denies access.
func (c *Course) CanAccess(moduleIdx, questionIdx int, solved SolvedSet) (bool, error) {
	if _, err := c.QuestionAt(moduleIdx, questionIdx); err != nil {
		return false, err
	}
	if moduleIdx == 0 && questionIdx == 0 {
		return true, nil
	}
	if questionIdx > 0 {
		prev := c.Modules[moduleIdx].Questions[questionIdx-1]
		return solved[prev.ID], nil
	}
	// first question of a later module: gate on the previous module's last question
	prevModule := c.Modules[moduleIdx-1]
	if len(prevModule.Questions) == 0 {
		return false, nil
	}
	prev := prevModule.Questions[len(prevModule.Questions)-1]
	return solved[prev.ID], nil
}

// Advancement is where the learner goes after solving a question.
type Advancement struct {
	CourseID      uint
	NextModule    int
	NextQuestion  int
	HasNext       bool
	QuizAvailable bool
	Completed     bool
	Feedback      string
}

// Advance computes the next target after the question at (moduleIdx,
// questionIdx) was solved: the next question in the module, then the first
// question of the next module, then the quiz if the course has one, else the
// course is complete.
func (c *Course) Advance(moduleIdx, questionIdx int) (Advancement, error) {
	question, err := c.QuestionAt(moduleIdx, questionIdx)
	if err != nil {
		return Advancement{}, err
	}
	adv := Advancement{CourseID: c.ID, Feedback: question.Feedback}
	switch {
	case questionIdx < len(c.Modules[moduleIdx].Questions)-1:
		adv.HasNext = true
		adv.NextModule = moduleIdx
		adv.NextQuestion = questionIdx + 1
	case moduleIdx < len(c.Modules)-1:
		adv.HasNext = true
		adv.NextModule = moduleIdx + 1
		adv.NextQuestion = 0
	case c.QuizQuestions > 0:
		adv.QuizAvailable = true
	default:
		adv.Completed = true
	}
	return adv, nil
}

// LastQuestion returns the last question of the last module, used to check
// whether a course has been completed before serving its quiz.
func (c *Course) LastQuestion() (QuestionRef, bool) {
	for i := len(c.Modules) - 1; i >= 0; i-- {
		questions := c.Modules[i].Questions
		if len(questions) > 0 {
			return questions[len(questions)-1], true
		}
	}
	return QuestionRef{}, false
}
