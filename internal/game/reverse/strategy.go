package reverse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/parser"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

// ErrUnparseable is returned by a strategy when the oracle reply carries no
// usable question or guess.
var ErrUnparseable = errors.New("reverse: unparseable oracle reply")

// Snapshot is what a strategy may look at when choosing its next move.
type Snapshot struct {
	Summary string
	// History is the unsummarized tail, oldest first.
	History []game.Turn
	// Answered counts every answer of the current game, summarized or not.
	Answered int
}

// QuestionStrategy decides what the engine says next.
type QuestionStrategy interface {
	// Ask produces the next yes/no question.
	Ask(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error)
	// Next runs after an answer is recorded and may propose a guess instead.
	Next(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error)
}

// SimpleStrategy always keeps asking. The whole oracle reply is the question.
type SimpleStrategy struct{}

// Ask implements QuestionStrategy.
func (SimpleStrategy) Ask(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error) {
	reply, err := o.Complete(ctx, plainQuestionMessages(snap), questionOptions)
	if err != nil {
		return Response{}, err
	}
	q := strings.TrimSpace(reply)
	if q == "" {
		return Response{}, fmt.Errorf("%w: empty question", ErrUnparseable)
	}
	return Response{Kind: KindQuestion, Question: q}, nil
}

// Next implements QuestionStrategy.
func (s SimpleStrategy) Next(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error) {
	return s.Ask(ctx, o, snap)
}

// GuessingStrategy uses the tagged grammar and, once MinTurns answers are
// in, asks the oracle whether it is confident enough to guess.
type GuessingStrategy struct {
	MinTurns int
}

// DefaultMinTurns is the number of answers before guessing is considered.
const DefaultMinTurns = 3

// Ask implements QuestionStrategy.
func (GuessingStrategy) Ask(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error) {
	reply, err := o.Complete(ctx, taggedQuestionMessages(snap), questionOptions)
	if err != nil {
		return Response{}, err
	}
	res := parser.Parse(reply, parser.QuestionField)
	if res.Value == "" {
		return Response{}, fmt.Errorf("%w: no <QUESTION> tag", ErrUnparseable)
	}
	return Response{Kind: KindQuestion, Question: res.Value, Reasoning: res.Reasoning}, nil
}

// Next implements QuestionStrategy.
func (g GuessingStrategy) Next(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error) {
	minTurns := g.MinTurns
	if minTurns <= 0 {
		minTurns = DefaultMinTurns
	}
	if snap.Answered >= minTurns && g.shouldGuess(ctx, o, snap) {
		return g.guess(ctx, o, snap)
	}
	return g.Ask(ctx, o, snap)
}

// shouldGuess treats any failure as "keep asking".
func (GuessingStrategy) shouldGuess(ctx context.Context, o oracle.Oracle, snap Snapshot) bool {
	reply, err := o.Complete(ctx, shouldGuessMessages(snap), shouldGuessOptions)
	if err != nil {
		return false
	}
	return parser.Parse(reply, parser.ShouldGuessField).Value == parser.Yes
}

func (GuessingStrategy) guess(ctx context.Context, o oracle.Oracle, snap Snapshot) (Response, error) {
	reply, err := o.Complete(ctx, guessMessages(snap), guessOptions)
	if err != nil {
		return Response{}, err
	}
	res := parser.Parse(reply, parser.GuessField)
	if res.Value == "" {
		return Response{}, fmt.Errorf("%w: no <GUESS> tag", ErrUnparseable)
	}
	return Response{Kind: KindGuess, Guess: res.Value, Reasoning: res.Reasoning}, nil
}
