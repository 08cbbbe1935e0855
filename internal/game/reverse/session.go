// Package reverse runs the game where the player thinks of a character and
// the engine asks yes/no questions to find it.
package reverse

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

// DefaultSummaryEvery is how many answers accumulate before the history is
// compacted into the running summary.
const DefaultSummaryEvery = 10

var (
	// ErrNoPendingQuestion is returned by AnswerQuestion when there is nothing to answer.
	ErrNoPendingQuestion = errors.New("reverse: no pending question")
	// ErrInvalidAnswer is returned for answers other than YES, NO or IRRELEVANT.
	ErrInvalidAnswer = errors.New("reverse: answer must be YES, NO or IRRELEVANT")
	// ErrGameOver is returned once a guess was confirmed; Start begins a new game.
	ErrGameOver = errors.New("reverse: game already won")
)

// Kind classifies a Response.
type Kind string

const (
	KindQuestion Kind = "QUESTION"
	KindGuess    Kind = "GUESS"
	KindWon      Kind = "WON"
	KindError    Kind = "ERROR"
)

// Response is what the engine says next.
type Response struct {
	Kind      Kind
	Question  string
	Guess     string
	Reasoning string
	// Stale is set on the ERROR returned when the game was reset mid-call.
	Stale bool
	// Err carries the failure behind an ERROR, for logging only.
	Err error
}

// Session is one reverse game, reset in place between games.
type Session struct {
	id           string
	oracle       oracle.Oracle
	strategy     QuestionStrategy
	observer     game.Observer
	log          *zap.Logger
	wins         *game.Signal
	epoch        game.Epoch
	summaryEvery int

	mu       sync.Mutex
	started  bool
	won      bool
	history  []game.Turn
	summary  string
	pending  string
	guess    string
	answered int
}

// NewSession creates a session asking o for questions with SimpleStrategy.
func NewSession(o oracle.Oracle, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:           id,
		oracle:       o,
		strategy:     SimpleStrategy{},
		observer:     game.NopObserver(),
		log:          log.With(zap.String("mode", string(game.ModeReverse)), zap.String("session_id", id)),
		wins:         game.NewSignal(log),
		summaryEvery: DefaultSummaryEvery,
	}
}

// SetStrategy selects how questions and guesses are produced. Call it before Start.
func (s *Session) SetStrategy(st QuestionStrategy) { s.strategy = st }

// SetObserver registers lifecycle notifications. Call it before Start.
func (s *Session) SetObserver(obs game.Observer) { s.observer = obs }

// SetSummaryEvery changes the summarization interval. Call it before Start.
func (s *Session) SetSummaryEvery(n int) {
	if n > 0 {
		s.summaryEvery = n
	}
}

// Start clears the previous game, begins a new epoch and asks the first
// question.
func (s *Session) Start(ctx context.Context) (Response, error) {
	if !s.oracle.Ready() {
		return Response{}, game.ErrNotReady
	}
	s.mu.Lock()
	s.started = true
	s.won = false
	s.history = nil
	s.summary = ""
	s.pending = ""
	s.guess = ""
	s.answered = 0
	tok := s.epoch.Bump()
	s.mu.Unlock()

	s.log.Info("game started", zap.Uint64("epoch", uint64(tok)))
	return s.GenerateQuestion(ctx)
}

// Reset ends the current game. In-flight calls become stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.won = false
	s.history = nil
	s.summary = ""
	s.pending = ""
	s.guess = ""
	s.answered = 0
	tok := s.epoch.Bump()
	s.log.Info("game reset", zap.Uint64("epoch", uint64(tok)))
}

// GenerateQuestion asks the strategy for a new question. Failures come back
// as an ERROR response and leave the pending question untouched.
func (s *Session) GenerateQuestion(ctx context.Context) (Response, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Response{}, game.ErrNotStarted
	}
	if s.won {
		s.mu.Unlock()
		return Response{}, ErrGameOver
	}
	tok := s.epoch.Capture()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	resp, err := s.strategy.Ask(ctx, s.oracle, snap)
	return s.apply(tok, "generate_question", resp, err), nil
}

// AnswerQuestion records the player's answer to the pending question,
// summarizes the history when it reaches the interval, and returns the
// engine's next move.
func (s *Session) AnswerQuestion(ctx context.Context, answer game.Answer) (Response, error) {
	switch answer {
	case game.AnswerYes, game.AnswerNo, game.AnswerIrrelevant:
	default:
		return Response{}, ErrInvalidAnswer
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Response{}, game.ErrNotStarted
	}
	if s.won {
		s.mu.Unlock()
		return Response{}, ErrGameOver
	}
	if s.pending == "" {
		s.mu.Unlock()
		return Response{}, ErrNoPendingQuestion
	}
	s.history = append(s.history, game.Turn{Question: s.pending, Answer: answer})
	s.pending = ""
	s.answered++
	tok := s.epoch.Capture()
	var batch []game.Turn
	if n := len(s.history); n > 0 && n%s.summaryEvery == 0 {
		batch = slices.Clone(s.history)
	}
	summary := s.summary
	s.mu.Unlock()

	if batch != nil {
		s.summarize(ctx, tok, summary, batch)
	}

	s.mu.Lock()
	if !s.epoch.Valid(tok) {
		s.mu.Unlock()
		return s.stale("answer_question"), nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	resp, err := s.strategy.Next(ctx, s.oracle, snap)
	return s.apply(tok, "answer_question", resp, err), nil
}

// summarize folds batch into the running summary. A failure keeps the
// history so nothing is lost; the next interval retries with more turns.
func (s *Session) summarize(ctx context.Context, tok game.Token, summary string, batch []game.Turn) {
	reply, err := s.oracle.Complete(ctx, summaryMessages(summary, batch), summaryOptions)
	reply = strings.TrimSpace(reply)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.epoch.Valid(tok) {
		s.observer.StaleDiscarded(game.ModeReverse, "summarize")
		return
	}
	if err != nil || reply == "" {
		s.log.Warn("summarization failed, keeping history", zap.Error(err), zap.Int("turns", len(batch)))
		return
	}
	s.summary = reply
	s.history = dropPrefix(s.history, batch)
	s.log.Debug("history summarized", zap.Int("turns", len(batch)), zap.Int("remaining", len(s.history)))
}

func dropPrefix(history, prefix []game.Turn) []game.Turn {
	if len(history) >= len(prefix) && slices.Equal(history[:len(prefix)], prefix) {
		return slices.Clone(history[len(prefix):])
	}
	return nil
}

// RemoveAnswer deletes every turn whose question equals question and returns
// how many were removed. Callers retract a question and its answer together.
func (s *Session) RemoveAnswer(question string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.history)
	s.history = slices.DeleteFunc(s.history, func(t game.Turn) bool {
		return t.Question == question
	})
	removed := before - len(s.history)
	s.answered -= removed
	if removed > 0 {
		s.log.Debug("answer removed", zap.String("question", question), zap.Int("removed", removed))
	}
	return removed
}

// ConfirmGuess tells the engine whether its guess was right. A correct guess
// wins the game and ends it; a wrong one resumes questioning.
func (s *Session) ConfirmGuess(ctx context.Context, correct bool) (Response, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Response{}, game.ErrNotStarted
	}
	if s.won {
		s.mu.Unlock()
		return Response{}, ErrGameOver
	}
	guess := s.guess
	s.guess = ""
	tok := s.epoch.Capture()
	if correct {
		s.won = true
	}
	s.mu.Unlock()

	if !correct {
		return s.GenerateQuestion(ctx)
	}
	s.log.Info("engine guessed correctly", zap.String("guess", guess))
	s.observer.Won(game.ModeReverse)
	s.wins.Publish(game.WinEvent{
		Mode:      game.ModeReverse,
		SessionID: s.id,
		Epoch:     tok,
		Guess:     guess,
	})
	return Response{Kind: KindWon, Guess: guess}, nil
}

func (s *Session) apply(tok game.Token, op string, resp Response, err error) Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.epoch.Valid(tok) {
		return s.stale(op)
	}
	if s.won {
		return Response{Kind: KindWon}
	}
	if err != nil {
		s.log.Warn("oracle call failed", zap.String("op", op), zap.Error(err))
		return Response{Kind: KindError, Reasoning: "failed to reach the oracle", Err: err}
	}
	switch resp.Kind {
	case KindQuestion:
		s.pending = resp.Question
		s.guess = ""
	case KindGuess:
		s.guess = resp.Guess
	}
	return resp
}

func (s *Session) stale(op string) Response {
	s.log.Debug("discarding stale response", zap.String("op", op))
	s.observer.StaleDiscarded(game.ModeReverse, op)
	return Response{Kind: KindError, Reasoning: "game was reset", Stale: true}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Summary:  s.summary,
		History:  slices.Clone(s.history),
		Answered: s.answered,
	}
}

// Wins returns the session's win signal.
func (s *Session) Wins() *game.Signal { return s.wins }

// ID returns the session identifier, stable across resets.
func (s *Session) ID() string { return s.id }

// Epoch returns the current generation.
func (s *Session) Epoch() game.Token { return s.epoch.Capture() }

func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Session) Won() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.won
}

// History returns a copy of the unsummarized turns, oldest first.
func (s *Session) History() []game.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Session) PendingQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) PendingGuess() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guess
}

// Answered counts the answers of the current game, including summarized ones.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answered
}
