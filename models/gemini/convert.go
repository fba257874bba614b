package gemini

import (
	"encoding/json"
	"mime"
	"path"
	"strings"

	models "github.com/Desarso/deckchat/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ConvertMessages maps provider messages onto Gemini contents. System text is
// lifted into the system instruction, assistant turns become "model" turns and
// tool results become function responses named after the call they answer.
func ConvertMessages(messages []models.ProviderMessage) (*genai.Content, []*genai.Content) {
	var systemParts []*genai.Part
	var contents []*genai.Content
	callNames := map[string]string{}

	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			if text := m.Text(); text != "" {
				systemParts = append(systemParts, genai.NewPartFromText(text))
			}

		case models.RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     callNames[m.ToolCallID],
				Response: toolResponse(m.Text()),
			}}
			contents = appendContent(contents, genai.RoleUser, part)

		case models.RoleAssistant:
			parts := contentParts(m.Content)
			for _, tc := range m.ToolCalls {
				callNames[tc.ID] = tc.Name
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: toolArgs(tc.Arguments),
				}})
			}
			contents = appendContent(contents, genai.RoleModel, parts...)

		default:
			contents = appendContent(contents, genai.RoleUser, contentParts(m.Content)...)
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return system, contents
}

// appendContent merges consecutive parts of the same role into one content.
func appendContent(contents []*genai.Content, role string, parts ...*genai.Part) []*genai.Content {
	if len(parts) == 0 {
		return contents
	}
	if n := len(contents); n > 0 && contents[n-1].Role == role {
		contents[n-1].Parts = append(contents[n-1].Parts, parts...)
		return contents
	}
	return append(contents, &genai.Content{Role: role, Parts: parts})
}

func contentParts(parts []models.ContentPart) []*genai.Part {
	var out []*genai.Part
	for _, part := range parts {
		switch part.Type {
		case models.PartTypeText:
			if part.Text != "" {
				out = append(out, genai.NewPartFromText(part.Text))
			}
		case models.PartTypeImageURL:
			if p := imagePart(part.ImageURL); p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

func imagePart(url string) *genai.Part {
	if models.IsDataURL(url) {
		decoded, err := models.ParseDataURL(url)
		if err != nil {
			log.Warn().Err(err).Msg("skipping undecodable image data URL")
			return nil
		}
		return genai.NewPartFromBytes(decoded.Data, decoded.MimeType)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0])))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return genai.NewPartFromURI(url, mimeType)
}

func toolArgs(arguments string) map[string]any {
	args := map[string]any{}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// toolResponse wraps non-object results since Gemini requires an object.
func toolResponse(result string) map[string]any {
	var v any
	if err := json.Unmarshal([]byte(result), &v); err != nil {
		return map[string]any{"result": result}
	}
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{"result": v}
}

func marshalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
