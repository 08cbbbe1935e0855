// Package classic runs the game where the engine picks a secret character and
// the player asks yes/no questions about it.
package classic

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/characters"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/parser"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

// State is the lifecycle state of a session.
type State int

const (
	NotStarted State = iota
	Started
	// Won is advisory: the session keeps answering questions.
	Won
)

// Status says how AskQuestion resolved.
type Status string

const (
	StatusAnswered Status = "ANSWERED"
	// StatusStale means the session was reset while the oracle was answering.
	StatusStale Status = "STALE"
	StatusError Status = "ERROR"
)

// Result is the answer to one player question.
type Result struct {
	Answer    game.Answer
	Reasoning string
	Status    Status
	// Err carries the oracle failure behind StatusError, for logging only.
	Err error
}

// Picker supplies secret characters; *characters.Pool implements it.
type Picker interface {
	Draw() (string, error)
}

var _ Picker = (*characters.Pool)(nil)

// Session is one classic game, reset in place between games.
type Session struct {
	id       string
	oracle   oracle.Oracle
	picker   Picker
	detector WinDetector
	observer game.Observer
	log      *zap.Logger
	wins     *game.Signal
	epoch    game.Epoch
	checks   sync.WaitGroup

	mu      sync.Mutex
	theme   string
	started bool
	won     bool
	secret  string
}

// NewSession creates a session that draws characters from picker and asks o
// for answers. Win detection defaults to SubstringDetector.
func NewSession(o oracle.Oracle, picker Picker, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		oracle:   o,
		picker:   picker,
		detector: SubstringDetector{},
		observer: game.NopObserver(),
		log:      log.With(zap.String("mode", string(game.ModeClassic)), zap.String("session_id", id)),
		wins:     game.NewSignal(log),
		theme:    characters.DefaultTheme,
	}
}

// SetDetector swaps the win detection rule. Call it before Start.
func (s *Session) SetDetector(d WinDetector) { s.detector = d }

// SetObserver registers lifecycle notifications. Call it before Start.
func (s *Session) SetObserver(obs game.Observer) { s.observer = obs }

// SetTheme sets the theme mentioned in prompts.
func (s *Session) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

// Start draws a new secret character and begins a new epoch.
func (s *Session) Start() error {
	if !s.oracle.Ready() {
		return game.ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.picker.Draw()
	if err != nil {
		return fmt.Errorf("classic: drawing character: %w", err)
	}
	s.secret = name
	s.started = true
	s.won = false
	tok := s.epoch.Bump()
	s.log.Info("game started", zap.Uint64("epoch", uint64(tok)))
	s.log.Debug("secret character drawn", zap.String("character", name))
	return nil
}

// Reset ends the current game. In-flight answers become stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.won = false
	s.secret = ""
	tok := s.epoch.Bump()
	s.log.Info("game reset", zap.Uint64("epoch", uint64(tok)))
}

// AskQuestion answers a player question. The win check runs concurrently and
// reports through Wins, independent of the answer. Only ErrNotStarted is
// returned as an error; oracle trouble comes back as a Result.
func (s *Session) AskQuestion(ctx context.Context, question string) (Result, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Result{}, game.ErrNotStarted
	}
	tok := s.epoch.Capture()
	secret, theme := s.secret, s.theme
	s.mu.Unlock()

	s.checks.Add(1)
	go s.checkWin(context.WithoutCancel(ctx), tok, secret, question)

	reply, err := s.oracle.Complete(ctx, answerMessages(secret, theme, question), answerOptions)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.epoch.Valid(tok) {
		s.log.Debug("discarding stale answer", zap.Uint64("epoch", uint64(tok)))
		s.observer.StaleDiscarded(game.ModeClassic, "ask_question")
		return Result{Answer: game.AnswerNotValid, Status: StatusStale}, nil
	}
	if err != nil {
		s.log.Warn("oracle failed to answer", zap.Error(err))
		return Result{Answer: game.AnswerNotValid, Status: StatusError, Err: err}, nil
	}
	parsed := parser.Parse(reply, parser.AnswerField)
	s.log.Debug("question answered",
		zap.String("question", question),
		zap.String("answer", parsed.Value),
		zap.Bool("tagged", parsed.Tagged))
	return Result{
		Answer:    game.Answer(parsed.Value),
		Reasoning: parsed.Reasoning,
		Status:    StatusAnswered,
	}, nil
}

func (s *Session) checkWin(ctx context.Context, tok game.Token, secret, question string) {
	defer s.checks.Done()
	if !s.detector.Detect(ctx, secret, question) {
		return
	}

	s.mu.Lock()
	if !s.epoch.Valid(tok) {
		s.mu.Unlock()
		s.observer.StaleDiscarded(game.ModeClassic, "win_check")
		return
	}
	s.won = true
	s.mu.Unlock()

	s.log.Info("player won", zap.String("question", question))
	s.observer.Won(game.ModeClassic)
	s.wins.Publish(game.WinEvent{
		Mode:      game.ModeClassic,
		SessionID: s.id,
		Epoch:     tok,
		Question:  question,
	})
}

// Wait blocks until every pending win check has finished.
func (s *Session) Wait() { s.checks.Wait() }

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

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.started:
		return NotStarted
	case s.won:
		return Won
	default:
		return Started
	}
}

// Secret returns the secret character. It exists for tests and debugging;
// the player must never see it.
func (s *Session) Secret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret
}
