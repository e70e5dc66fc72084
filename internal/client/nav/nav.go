// Package nav maps application paths to screens.
package nav

import (
	"strconv"
	"strings"
	"sync"

	"quizroom/internal/client/play"
)

type Route string

const (
	Home       Route = "/"
	Login      Route = "/login"
	Register   Route = "/register"
	CreateQuiz Route = "/create-quiz"
	MyQuizzes  Route = "/my-quizzes"
	Lobby      Route = "/quiz/:quizId"
	Play       Route = "/quiz/:quizId/play"
	Results    Route = "/quiz-results"
	Logout     Route = "/logout"
)

// Target is a resolved path.
type Target struct {
	Route  Route
	QuizID int64
}

// Resolve maps path to a route. /quiz/{id} always opens the lobby; the play
// screen is only reachable through Navigator.ToPlay. Anything unknown is Home.
func Resolve(path string) Target {
	path = "/" + strings.Trim(path, "/")
	switch Route(path) {
	case Home, Login, Register, CreateQuiz, MyQuizzes, Results, Logout:
		return Target{Route: Route(path)}
	}
	if rest, ok := strings.CutPrefix(path, "/quiz/"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			return Target{Route: Lobby, QuizID: id}
		}
	}
	return Target{Route: Home}
}

// Navigator tracks the current screen and carries the outcome from play to
// results.
type Navigator struct {
	mu      sync.Mutex
	current Target
	outcome *play.Outcome
}

func NewNavigator() *Navigator {
	return &Navigator{current: Target{Route: Home}}
}

func (n *Navigator) Current() Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Go navigates to path. Opening results without an outcome lands on Home.
func (n *Navigator) Go(path string) Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := Resolve(path)
	if t.Route == Results && n.outcome == nil {
		t = Target{Route: Home}
	}
	if t.Route != Results {
		n.outcome = nil
	}
	n.current = t
	return t
}

// ToPlay moves from a started lobby into the quiz.
func (n *Navigator) ToPlay(quizID int64) Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcome = nil
	n.current = Target{Route: Play, QuizID: quizID}
	return n.current
}

// ToResults carries o to the results screen.
func (n *Navigator) ToResults(o play.Outcome) Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcome = &o
	n.current = Target{Route: Results, QuizID: o.Quiz.ID}
	return n.current
}

// Outcome is the state carried to the results screen, or nil.
func (n *Navigator) Outcome() *play.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.outcome
}
