package protocol

import (
	"encoding/json"

	models "github.com/Desarso/deckchat/models"
)

// Data stream part type codes.
const (
	partText          = "0"
	partError         = "3"
	partToolCall      = "9"
	partFinishMessage = "d"
	partFinishStep    = "e"
	partStartStep     = "f"
)

type DataEncoder struct{}

type startPart struct {
	MessageID string `json:"messageId"`
}

type toolCallPart struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Args       any    `json:"args"`
}

type usagePart struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type finishStepPart struct {
	FinishReason string    `json:"finishReason"`
	Usage        usagePart `json:"usage"`
	IsContinued  bool      `json:"isContinued"`
}

type finishMessagePart struct {
	FinishReason string    `json:"finishReason"`
	Usage        usagePart `json:"usage"`
}

func (DataEncoder) Name() string { return Data }

func (DataEncoder) Start(messageID string) []string {
	return []string{part(partStartStep, startPart{MessageID: messageID})}
}

func (DataEncoder) Text(delta string) []string {
	if delta == "" {
		return nil
	}
	return []string{part(partText, delta)}
}

func (DataEncoder) ToolCalls(calls []models.ToolCall) []string {
	parts := make([]string, 0, len(calls))
	for _, call := range calls {
		var args any = call.Arguments
		if json.Valid([]byte(call.Arguments)) {
			args = json.RawMessage(call.Arguments)
		}
		parts = append(parts, part(partToolCall, toolCallPart{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Args:       args,
		}))
	}
	return parts
}

func (DataEncoder) Error(message string) []string {
	return []string{part(partError, message)}
}

func (DataEncoder) Finish(finishReason string, usage *models.Usage) []string {
	if finishReason == "" {
		finishReason = models.FinishUnknown
	}
	var u usagePart
	if usage != nil {
		u = usagePart{PromptTokens: usage.PromptTokens, CompletionTokens: usage.CompletionTokens}
	}
	return []string{
		part(partFinishStep, finishStepPart{FinishReason: finishReason, Usage: u}),
		part(partFinishMessage, finishMessagePart{FinishReason: finishReason, Usage: u}),
	}
}

// part renders "<code>:<json>\n". Values here always marshal.
func part(code string, value any) string {
	b, err := json.Marshal(value)
	if err != nil {
		b = []byte("null")
	}
	return code + ":" + string(b) + "\n"
}
