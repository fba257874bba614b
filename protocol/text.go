package protocol

import models "github.com/Desarso/deckchat/models"

// TextEncoder emits only the text deltas, unframed.
type TextEncoder struct{}

func (TextEncoder) Name() string { return Text }

func (TextEncoder) Start(string) []string { return nil }

func (TextEncoder) Text(delta string) []string {
	if delta == "" {
		return nil
	}
	return []string{delta}
}

func (TextEncoder) ToolCalls([]models.ToolCall) []string { return nil }

func (TextEncoder) Error(string) []string { return nil }

func (TextEncoder) Finish(string, *models.Usage) []string { return nil }
