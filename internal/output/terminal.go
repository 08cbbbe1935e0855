// Package output renders game events to the terminal.
package output

import (
	"fmt"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/game/classic"
	"github.com/lorenzotomasdiez/who-am-i/internal/openrouter"
)

const (
	ansiReset   = "\033[0m"
	ansiBold    = "\033[1m"
	ansiDim     = "\033[2m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	AnsiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

const (
	Apology       = "Sorry, I encountered an error. Please try again."
	NotValidText  = "That's not a valid yes/no question. Please ask a yes/no question."
	UnclearText   = "I don't understand. Please ask a yes/no question."
	ClassicIntro  = "I'm thinking of a character. Ask me yes/no questions to figure out who I am!"
	ReverseIntro  = "Think of a character (from movies, books, real life, etc.) and I will try to guess who you are thinking of by asking you yes/no questions!"
	KeepGuessing  = "Okay, let me ask more questions to figure it out!"
	StartFailText = "Failed to start game. Please make sure the AI model is loaded."
)

// Colorize wraps s with an ANSI color code and reset.
func Colorize(color, s string) string { return color + s + ansiReset }

// Bold wraps s with ANSI bold and reset.
func Bold(s string) string { return ansiBold + s + ansiReset }

// AnswerText is what the player reads for a classic answer.
func AnswerText(a game.Answer) string {
	switch a {
	case game.AnswerYes:
		return "Yes!"
	case game.AnswerNo:
		return "No!"
	case game.AnswerNotValid:
		return NotValidText
	default:
		return UnclearText
	}
}

// PrintAnswer prints the oracle's answer to a classic question. Stale
// results are not printed; they belong to a game that no longer exists.
func PrintAnswer(res classic.Result) {
	switch res.Status {
	case classic.StatusStale:
		return
	case classic.StatusError:
		PrintApology()
		return
	}
	color := ansiYellow
	switch res.Answer {
	case game.AnswerYes:
		color = ansiGreen
	case game.AnswerNo:
		color = ansiRed
	}
	fmt.Printf("%s %s\n", Colorize(ansiBold+color, "»"), AnswerText(res.Answer))
	if res.Reasoning != "" {
		fmt.Printf("  %s\n", Colorize(ansiDim, res.Reasoning))
	}
}

// PrintQuestion prints the n-th question the engine asks in reverse mode.
func PrintQuestion(n int, question string) {
	fmt.Printf("%s %s\n", Colorize(ansiCyan, fmt.Sprintf("[Q%d]", n)), Bold(question))
}

// PrintGuess prints the engine's guess.
func PrintGuess(guess string) {
	fmt.Printf("%s I think you're thinking of: %s\n", Colorize(ansiBold+AnsiMagenta, "[Guess]"), Bold(guess))
}

// PrintWin prints the win banner for ev.
func PrintWin(ev game.WinEvent) {
	var msg string
	switch ev.Mode {
	case game.ModeReverse:
		msg = "Great! I guessed correctly! I knew it was " + ev.Guess + "."
	default:
		msg = "You got it! Your question \"" + ev.Question + "\" found me."
	}
	fmt.Printf("\n%s\n\n", Colorize(ansiBold+ansiGreen, "*** "+msg+" ***"))
}

// PrintReveal prints the secret character when the player gives up.
func PrintReveal(secret string) {
	fmt.Printf("I was %s.\n", Colorize(ansiBold+AnsiMagenta, secret))
}

// PrintInfo prints a neutral engine message.
func PrintInfo(msg string) {
	fmt.Println(Colorize(ansiCyan, msg))
}

// PrintApology prints the generic retry message shown after a failed turn.
func PrintApology() {
	fmt.Println(Colorize(ansiRed, Apology))
}

// PrintError prints a hard failure such as a precondition violation.
func PrintError(err error) {
	fmt.Printf("%s %v\n", Colorize(ansiBold+ansiRed, "error:"), err)
}

// PrintModels lists OpenRouter models, one per line.
func PrintModels(models []openrouter.Model) {
	for _, m := range models {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		fmt.Printf("%s  %s\n", Bold(m.ID), Colorize(ansiDim, name))
	}
}
