package classic

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"

	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

var (
	answerOptions = oracle.Options{Temperature: 0.7, MaxTokens: 100}
	judgeOptions  = oracle.Options{Temperature: 0.0, MaxTokens: 60}
)

func answerSystemPrompt(character, theme string) string {
	return heredoc.Docf(`
		You are playing a "Who Am I?" game. The character is %q and the theme is %q.
		The player asks yes/no questions to guess the character.
		You must respond with a reasoning and an answer in the following format:
		<REASONING> very short reasoning </REASONING>
		<ANSWER> YES|NO|NOT_VALID </ANSWER>
		Answer NOT_VALID when the question cannot be answered with yes or no.
		Never reveal the character's name.`, character, theme)
}

func answerMessages(character, theme, question string) []oracle.Message {
	return []oracle.Message{
		oracle.System(answerSystemPrompt(character, theme)),
		oracle.User(fmt.Sprintf("<QUESTION>%s</QUESTION>", question)),
	}
}

func judgeMessages(character, question string) []oracle.Message {
	return []oracle.Message{
		oracle.System(heredoc.Docf(`
			You referee a "Who Am I?" game. The secret character is %q.
			Decide whether the player's message correctly names the secret character as a guess.
			Respond in the following format:
			<REASONING> very short reasoning </REASONING>
			<WIN> YES|NO </WIN>`, character)),
		oracle.User(fmt.Sprintf("<QUESTION>%s</QUESTION>", question)),
	}
}
