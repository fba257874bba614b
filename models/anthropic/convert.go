package anthropic

import (
	"encoding/base64"
	"encoding/json"

	models "github.com/Desarso/deckchat/models"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"
)

// ConvertMessages splits provider messages into the system prompt blocks and
// the alternating message list the Messages API expects. System messages
// become system blocks; consecutive "tool" messages are grouped into a single
// user message of tool_result blocks. Empty text parts are dropped since the
// API rejects empty text blocks.
func ConvertMessages(messages []models.ProviderMessage) ([]sdk.TextBlockParam, []sdk.MessageParam) {
	var system []sdk.TextBlockParam
	var out []sdk.MessageParam

	i := 0
	for i < len(messages) {
		m := messages[i]
		switch m.Role {
		case models.RoleSystem:
			if text := m.Text(); text != "" {
				system = append(system, sdk.TextBlockParam{Text: text})
			}
			i++

		case models.RoleTool:
			var blocks []sdk.ContentBlockParamUnion
			for i < len(messages) && messages[i].Role == models.RoleTool {
				blocks = append(blocks, sdk.NewToolResultBlock(messages[i].ToolCallID, messages[i].Text(), false))
				i++
			}
			out = append(out, sdk.NewUserMessage(blocks...))

		case models.RoleAssistant:
			blocks := contentBlocks(m.Content)
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
			i++

		default:
			if blocks := contentBlocks(m.Content); len(blocks) > 0 {
				out = append(out, sdk.NewUserMessage(blocks...))
			}
			i++
		}
	}

	return system, out
}

func contentBlocks(parts []models.ContentPart) []sdk.ContentBlockParamUnion {
	var blocks []sdk.ContentBlockParamUnion
	for _, part := range parts {
		switch part.Type {
		case models.PartTypeText:
			if part.Text != "" {
				blocks = append(blocks, sdk.NewTextBlock(part.Text))
			}
		case models.PartTypeImageURL:
			if block, ok := imageBlock(part.ImageURL); ok {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}

func imageBlock(url string) (sdk.ContentBlockParamUnion, bool) {
	if !models.IsDataURL(url) {
		return sdk.ContentBlockParamUnion{OfImage: &sdk.ImageBlockParam{
			Source: sdk.ImageBlockParamSourceUnion{OfURL: &sdk.URLImageSourceParam{URL: url}},
		}}, true
	}

	decoded, err := models.ParseDataURL(url)
	if err != nil {
		log.Warn().Err(err).Msg("skipping undecodable image data URL")
		return sdk.ContentBlockParamUnion{}, false
	}
	return sdk.NewImageBlockBase64(decoded.MimeType, base64.StdEncoding.EncodeToString(decoded.Data)), true
}

func toolInput(arguments string) json.RawMessage {
	if json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	return json.RawMessage("{}")
}
