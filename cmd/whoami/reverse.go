package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/config"
	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/reverse"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
	"github.com/lorenzotomasdiez/who-am-i/internal/output"
)

var reverseHelp = heredoc.Doc(`
	Answer with y (yes), n (no) or i (irrelevant / don't know).
	Commands: /undo retracts your last answer, /new starts over, /quit exits.`)

func newReverseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse",
		Short: "Let the model guess the character you are thinking of",
		Long: heredoc.Doc(`
			Think of a character. The model asks yes/no questions and, with
			the guessing strategy, eventually names who it thinks you are.`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			o, err := a.loadOracle(ctx)
			if err != nil {
				return err
			}
			s := newReverseSession(a.cfg, o, a.metrics, a.log)
			return playReverse(ctx, s, os.Stdin)
		},
	}
	cmd.Flags().String("strategy", "", "Question strategy: simple or guessing (overrides WHOAMI_STRATEGY)")
	cmd.Flags().Int("summary-every", 0, "Summarize the history every N answers (overrides WHOAMI_SUMMARY_EVERY)")
	return cmd
}

func newReverseSession(cfg *config.Config, o oracle.Oracle, obs game.Observer, log *zap.Logger) *reverse.Session {
	s := reverse.NewSession(o, log)
	s.SetObserver(obs)
	s.SetSummaryEvery(cfg.SummaryEvery)
	if cfg.Strategy == config.StrategyGuessing {
		s.SetStrategy(reverse.GuessingStrategy{MinTurns: reverse.DefaultMinTurns})
	}
	return s
}

func parseAnswer(line string) (game.Answer, bool) {
	switch strings.ToLower(line) {
	case "y", "yes":
		return game.AnswerYes, true
	case "n", "no":
		return game.AnswerNo, true
	case "i", "?", "idk", "irrelevant", "unknown":
		return game.AnswerIrrelevant, true
	}
	return "", false
}

// playReverse runs the reverse REPL until the player quits or input ends.
func playReverse(ctx context.Context, s *reverse.Session, in io.Reader) error {
	output.PrintInfo(output.ReverseIntro)
	output.PrintInfo(reverseHelp)

	var resp reverse.Response
	var err error
	thinking("thinking", func() { resp, err = s.Start(ctx) })
	if err != nil {
		output.PrintInfo(output.StartFailText)
		return err
	}
	show(s, resp)

	lr := newLineReader(in)
	for {
		line, ok := lr.next(ctx, promptFor(resp))
		if !ok {
			return nil
		}
		cmd := strings.ToLower(line)
		if cmd == "" && resp.Kind != reverse.KindError {
			continue
		}
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/new":
			thinking("thinking", func() { resp, err = s.Start(ctx) })
		case "/undo":
			undo(s)
			continue
		default:
			resp, err = step(ctx, s, resp, cmd)
		}
		if err != nil {
			output.PrintError(err)
			continue
		}
		show(s, resp)
	}
}

func promptFor(resp reverse.Response) string {
	switch resp.Kind {
	case reverse.KindQuestion:
		return "\n[y/n/i] "
	case reverse.KindGuess:
		return "\nAm I right? [y/n] "
	case reverse.KindWon:
		return "\n/new or /quit: "
	default:
		return "\nPress Enter to retry, or /new: "
	}
}

// step advances the game from resp according to the player's input.
func step(ctx context.Context, s *reverse.Session, resp reverse.Response, input string) (reverse.Response, error) {
	var next reverse.Response
	var err error
	switch resp.Kind {
	case reverse.KindQuestion:
		answer, ok := parseAnswer(input)
		if !ok {
			output.PrintInfo("Please answer y, n or i.")
			return resp, nil
		}
		thinking("thinking", func() { next, err = s.AnswerQuestion(ctx, answer) })
	case reverse.KindGuess:
		answer, ok := parseAnswer(input)
		if !ok || answer == game.AnswerIrrelevant {
			output.PrintInfo("Please answer y or n.")
			return resp, nil
		}
		thinking("thinking", func() { next, err = s.ConfirmGuess(ctx, answer == game.AnswerYes) })
		if err == nil && next.Kind == reverse.KindQuestion {
			output.PrintInfo(output.KeepGuessing)
		}
	case reverse.KindWon:
		output.PrintInfo("Type /new to play again or /quit to exit.")
		return resp, nil
	default:
		thinking("thinking", func() { next, err = s.GenerateQuestion(ctx) })
	}
	return next, err
}

// undo retracts the most recent answer. The pending question stays.
func undo(s *reverse.Session) {
	history := s.History()
	if len(history) == 0 {
		output.PrintInfo("Nothing to undo.")
		return
	}
	last := history[len(history)-1]
	n := s.RemoveAnswer(last.Question)
	output.PrintInfo("Removed \"" + last.Question + "\" (" + string(last.Answer) + ")")
	if n > 1 {
		output.PrintInfo("The same question had been asked before; all its answers were removed.")
	}
}

func show(s *reverse.Session, resp reverse.Response) {
	switch resp.Kind {
	case reverse.KindQuestion:
		output.PrintQuestion(s.Answered()+1, resp.Question)
	case reverse.KindGuess:
		output.PrintGuess(resp.Guess)
	case reverse.KindWon:
		output.PrintWin(game.WinEvent{Mode: game.ModeReverse, SessionID: s.ID(), Guess: resp.Guess})
	case reverse.KindError:
		if !resp.Stale {
			output.PrintApology()
		}
	}
}
