package game

import (
	"errors"
	"fmt"
	"strings"
)

// Answer is a yes/no verdict. The label set differs between modes: classic
// answers use NOT_VALID as the invalid sentinel, reverse answers use
// IRRELEVANT for "don't know".
type Answer string

const (
	AnswerYes        Answer = "YES"
	AnswerNo         Answer = "NO"
	AnswerNotValid   Answer = "NOT_VALID"
	AnswerIrrelevant Answer = "IRRELEVANT"
)

// Mode identifies which game a session plays.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeReverse Mode = "reverse"
)

// Turn is one question and the answer it received.
type Turn struct {
	Question string `json:"question"`
	Answer   Answer `json:"answer"`
}

var (
	// ErrNotReady is returned when a session is started before the oracle is loaded.
	ErrNotReady = errors.New("game: oracle is not ready, wait for the model to load")
	// ErrNotStarted is returned by play operations called before Start.
	ErrNotStarted = errors.New("game: not started")
)

// Observer receives session lifecycle notifications. Implementations must be
// safe for concurrent use.
type Observer interface {
	StaleDiscarded(mode Mode, op string)
	Won(mode Mode)
}

type nopObserver struct{}

func (nopObserver) StaleDiscarded(Mode, string) {}
func (nopObserver) Won(Mode)                    {}

// NopObserver returns an Observer that ignores everything.
func NopObserver() Observer { return nopObserver{} }

// FormatHistory renders turns oldest first as "Q: ... A: ..." lines.
func FormatHistory(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "Q: %s A: %s", t.Question, t.Answer)
	}
	return sb.String()
}
