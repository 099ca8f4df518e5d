package brain

import "fmt"

// DefaultSystemPrompt keeps answers on topic and asks the model to cite its sources.
const DefaultSystemPrompt = "Answer only questions related to the topic of the conversation. " +
	"Do not provide information or citations that are not relevant to the conversation. " +
	"Please include links from the citation content to the response message."

// FormatReply prefixes the annotated answer with a greeting mentioning the asker.
func FormatReply(userID, annotated string) string {
	return fmt.Sprintf("Hi there, <@%s>\n\n%s", userID, annotated)
}
