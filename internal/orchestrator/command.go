package orchestrator

import "strings"

// Intent classifies what a submitted command is asking for. The set is
// closed; anything that matches no known prefix is treated as freeform.
type Intent string

const (
	IntentGenerateReport Intent = "generate-report"
	IntentDraftEmail     Intent = "draft-email"
	IntentAnalyzeFile    Intent = "analyze-file"
	IntentFreeform       Intent = "freeform"
)

// Command is a parsed submission: the recognized intent plus the full
// prompt text forwarded to the provider.
type Command struct {
	Intent Intent
	Prompt string
}

var intentPrefixes = []struct {
	intent   Intent
	prefixes []string
}{
	{IntentGenerateReport, []string{"generate report", "generate a report", "create report", "create a report", "report:"}},
	{IntentDraftEmail, []string{"draft email", "draft an email", "write email", "write an email", "email:"}},
	{IntentAnalyzeFile, []string{"analyze file", "analyze the file", "analyze this file", "analyze:"}},
}

// ParseCommand matches the leading keywords of raw against the known
// intents. Matching is case-insensitive; the prompt keeps the original
// wording so the provider sees exactly what the user typed.
func ParseCommand(raw string) Command {
	prompt := strings.TrimSpace(raw)
	lowered := strings.ToLower(prompt)
	for _, entry := range intentPrefixes {
		for _, prefix := range entry.prefixes {
			if strings.HasPrefix(lowered, prefix) {
				return Command{Intent: entry.intent, Prompt: prompt}
			}
		}
	}
	return Command{Intent: IntentFreeform, Prompt: prompt}
}
