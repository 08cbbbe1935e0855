package reverse

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

var (
	questionOptions    = oracle.Options{Temperature: 0.7, MaxTokens: 150}
	shouldGuessOptions = oracle.Options{Temperature: 0.3, MaxTokens: 100}
	guessOptions       = oracle.Options{Temperature: 0.7, MaxTokens: 150}
	summaryOptions     = oracle.Options{Temperature: 0.3, MaxTokens: 200}
)

const gameIntro = `You are playing a reverse "Who Am I?" game. The user is thinking of a character (could be from movies, books, real life, etc.) and you need to ask yes/no questions to guess who they are thinking of.`

// transcript renders what is known so far: the running summary, then the
// unsummarized turns oldest first.
func transcript(snap Snapshot) string {
	var sb strings.Builder
	if snap.Summary != "" {
		sb.WriteString("Summary of earlier questions and answers:\n")
		sb.WriteString(snap.Summary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Previous questions and answers:\n")
	if len(snap.History) == 0 {
		sb.WriteString("(none yet)")
	} else {
		sb.WriteString(game.FormatHistory(snap.History))
	}
	return sb.String()
}

func plainQuestionMessages(snap Snapshot) []oracle.Message {
	return []oracle.Message{
		oracle.System(gameIntro + "\n\n" + heredoc.Doc(`
			Ask strategic questions that narrow down the possibilities, taking the previous answers into account.
			Reply with exactly one short yes/no question and nothing else.`)),
		oracle.User(transcript(snap)),
	}
}

func taggedQuestionMessages(snap Snapshot) []oracle.Message {
	return []oracle.Message{
		oracle.System(gameIntro + "\n\n" + heredoc.Doc(`
			Ask strategic questions that narrow down the possibilities, taking the previous answers into account.
			Ask one clear yes/no question that will help you identify the character.

			Use the following format:
			<REASONING> brief reasoning for this question </REASONING>
			<QUESTION> your yes/no question </QUESTION>`)),
		oracle.User(transcript(snap)),
	}
}

func shouldGuessMessages(snap Snapshot) []oracle.Message {
	return []oracle.Message{
		oracle.System(gameIntro + "\n\n" + heredoc.Doc(`
			Based on the questions asked and answers received, determine if you have enough information to make a reasonable guess.
			Respond with YES if you have enough information to make a confident guess, or NO if you need more questions.

			Use the following format:
			<REASONING> brief reasoning </REASONING>
			<SHOULD_GUESS> YES|NO </SHOULD_GUESS>`)),
		oracle.User(transcript(snap)),
	}
}

func guessMessages(snap Snapshot) []oracle.Message {
	return []oracle.Message{
		oracle.System(gameIntro + "\n\n" + heredoc.Doc(`
			Based on the questions asked and answers received, make your best guess at who the user is thinking of.
			Be specific and confident.

			Use the following format:
			<REASONING> brief reasoning for your guess </REASONING>
			<GUESS> your guess (character name) </GUESS>`)),
		oracle.User(transcript(snap)),
	}
}

func summaryMessages(summary string, batch []game.Turn) []oracle.Message {
	prior := summary
	if prior == "" {
		prior = "(nothing yet)"
	}
	return []oracle.Message{
		oracle.System(heredoc.Doc(`
			You keep notes for a player of a "Who Am I?" guessing game.
			Merge the previous notes and the new yes/no answers into a short list of facts known about the character.
			Keep every fact, drop the questions themselves, and reply with the notes only.`)),
		oracle.User("Previous notes:\n" + prior + "\n\nNew questions and answers:\n" + game.FormatHistory(batch)),
	}
}
