package prompts

import "fmt"

// Prompts for the deck metadata extractor.
const (
	MetadataSystem = "Return STRICT JSON only, no prose. Read slide text and produce: " +
		"title (short), description (single sentence), systemPrompt (concise, high quality), " +
		"topics (8-12 concise bullet points summarizing core ideas), " +
		"suggestedActions (5-8 objects with title, label, action that lead to useful follow-ups). " +
		"Avoid trivial/boilerplate like authorship, agenda, Q&A, or thank-you slides."

	TopicsSystem = "Return a JSON array of 8-12 short bullet topics for the deck. No prose."

	metadataUser = "TEXT:\n%s\n\n" +
		`Return JSON with keys exactly: {"title", "description", "systemPrompt", "topics", "suggestedActions"}.`
	topicsUser = "TEXT:\n%s"
)

func MetadataUser(text string) string {
	return fmt.Sprintf(metadataUser, text)
}

func TopicsUser(text string) string {
	return fmt.Sprintf(topicsUser, text)
}

// HeadingAction is the follow-up instruction synthesized for a detected heading.
func HeadingAction(heading string) string {
	return fmt.Sprintf("From the presentation, explain the section titled '%s'. Summarize key points and implications.", heading)
}
