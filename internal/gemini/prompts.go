package gemini

import (
	"fmt"
	"strings"
)

// maxJournalRunes caps how much of a day's journal is sent to the model.
const maxJournalRunes = 200_000

// digestPromptTemplate frames one day's journal for summarization. It takes
// the ISO date and the journal text.
const digestPromptTemplate = `Below is the journal for %s, exported from Telegram. Each entry starts with [HH:MM:SS] and the sender's name; attachments appear as markdown links.

Summarize the day as markdown. Start with a one-sentence overview, then a bullet list of notable entries in chronological order, then a "Follow-ups" list if anything needs action. Reply with the digest only.

--- JOURNAL START ---
%s
--- JOURNAL END ---`

// BuildDigestPrompt formats the user prompt for a day's digest. The YAML
// front matter is dropped and overly long journals keep their tail.
func BuildDigestPrompt(isoDate, journalText string) string {
	body := stripFrontMatter(journalText)
	if r := []rune(body); len(r) > maxJournalRunes {
		body = "[earlier entries omitted]\n" + string(r[len(r)-maxJournalRunes:])
	}
	return fmt.Sprintf(digestPromptTemplate, isoDate, strings.TrimSpace(body))
}

func stripFrontMatter(text string) string {
	if !strings.HasPrefix(text, "---\n") {
		return text
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return text
	}
	return rest[end+len("\n---\n"):]
}
