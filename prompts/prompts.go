// Package prompts holds the system prompts the gateway sends to the model and
// the logic that picks one for a chat request.
package prompts

import (
	"fmt"
	"strings"

	models "github.com/Desarso/deckchat/models"
	"github.com/rs/zerolog/log"
)

const DefaultTitle = "Presentation"

// Default is the base assistant persona used when the client supplies no
// presentation context.
const Default = `
You are an educational chatbot that answers concisely, factually, and in a well-structured format. Always:
- Be clear and organized with short sections, bullet points, and small tables where helpful.
- State assumptions and uncertainty; avoid fabricating citations or facts.
- Focus on the user's question first; ask a brief clarifying question if the prompt is ambiguous.
- Keep responses compact (typically under 200 words) unless asked for depth.
`

const deckPreface = `
Adapt to the uploaded presentation: "%s".
Ground answers primarily in this deck. When outside scope, say so briefly and proceed with general knowledge if appropriate.
Use this excerpt to anchor context (do not repeat verbatim unless asked):

Be efficient in your speech, and use tables when necessary.

--- Presentation excerpt  ---
%s
--- End excerpt ---

Generate a specialized persona and topic framing consistent with the deck. Prefer concise summaries, key takeaways, and actionable suggestions.
If the question is outside the presentation, note that explicitly.

`

// BuildDeckPrompt grounds the default prompt in an excerpt of the uploaded deck.
func BuildDeckPrompt(title, preview string) string {
	if title == "" {
		title = DefaultTitle
	}
	log.Debug().Str("title", title).Int("preview_len", len(preview)).Str("preview", preview).Msg("building deck system prompt")
	return fmt.Sprintf(deckPreface, title, preview) + "\n\n" + Default
}

// Resolve picks the system prompt for a chat request. A client-supplied
// systemPrompt wins, then a prompt built from rawPreview, then Default.
func Resolve(hint *models.SystemHint) string {
	if hint == nil {
		return Default
	}
	if strings.TrimSpace(hint.SystemPrompt) != "" {
		return hint.SystemPrompt
	}
	if hint.RawPreview != "" {
		return BuildDeckPrompt(hint.Title, hint.RawPreview)
	}
	return Default
}

// WithSystem prepends the resolved system prompt to the client conversation.
func WithSystem(hint *models.SystemHint, messages []models.ClientMessage) []models.ClientMessage {
	out := make([]models.ClientMessage, 0, len(messages)+1)
	out = append(out, models.ClientMessage{Role: models.RoleSystem, Content: Resolve(hint)})
	return append(out, messages...)
}
