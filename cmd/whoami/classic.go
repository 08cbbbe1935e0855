package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/config"
	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/characters"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/classic"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
	"github.com/lorenzotomasdiez/who-am-i/internal/output"
)

var classicHelp = heredoc.Doc(`
	Ask yes/no questions. Name the character in a question to win.
	Commands: /new starts a new game, /reveal gives up, /quit exits.`)

func newClassicCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classic",
		Short: "Guess the character the model is playing",
		Long: heredoc.Doc(`
			The model secretly picks a character and answers your yes/no
			questions in character. Ask "Are you ...?" to win.`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			o, err := a.loadOracle(ctx)
			if err != nil {
				return err
			}
			s := newClassicSession(a.cfg, o, a.metrics, a.log)
			return playClassic(ctx, s, os.Stdin)
		},
	}
	cmd.Flags().String("theme", "", "Character theme: disney or pixar (overrides WHOAMI_THEME)")
	cmd.Flags().String("detector", "", "Win detector: substring or oracle (overrides WHOAMI_WIN_DETECTOR)")
	return cmd
}

func newClassicSession(cfg *config.Config, o oracle.Oracle, obs game.Observer, log *zap.Logger) *classic.Session {
	catalog, ok := characters.Catalog(cfg.Theme)
	if !ok {
		catalog = characters.Disney()
	}
	pool := characters.NewPool(catalog, nil, log)
	s := classic.NewSession(o, pool, log)
	s.SetTheme(cfg.Theme)
	s.SetObserver(obs)
	if cfg.WinDetector == config.DetectorOracle {
		s.SetDetector(classic.OracleDetector{Oracle: o, Log: log})
	}
	return s
}

// playClassic runs the classic REPL until the player quits or input ends.
func playClassic(ctx context.Context, s *classic.Session, in io.Reader) error {
	wins, cancel := s.Wins().Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range wins {
			output.PrintWin(ev)
		}
	}()
	defer func() {
		s.Wait()
		cancel()
		wg.Wait()
	}()

	if err := s.Start(); err != nil {
		output.PrintInfo(output.StartFailText)
		return err
	}
	output.PrintInfo(output.ClassicIntro)
	output.PrintInfo(classicHelp)

	lr := newLineReader(in)
	for {
		line, ok := lr.next(ctx, "\n? ")
		if !ok {
			return nil
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			if s.Started() {
				output.PrintReveal(s.Secret())
			}
			if err := s.Start(); err != nil {
				output.PrintError(err)
				continue
			}
			output.PrintInfo(output.ClassicIntro)
			continue
		case "/reveal":
			output.PrintReveal(s.Secret())
			continue
		}

		var res classic.Result
		var err error
		thinking("thinking", func() { res, err = s.AskQuestion(ctx, line) })
		if err != nil {
			if errors.Is(err, game.ErrNotStarted) {
				output.PrintError(err)
				continue
			}
			return err
		}
		output.PrintAnswer(res)
	}
}
