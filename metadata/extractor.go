// Package metadata synthesizes deck metadata (title, description, topics,
// system prompt and suggested follow-ups) from extracted slide text.
//
// The model is asked for strict JSON, but its reply is treated as untrusted:
// every field falls back to a deterministic heuristic when the call fails or
// the reply is unusable, so extraction itself never fails.
package metadata

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/prompts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTemperature   = 0.2
	DefaultTimeout       = 45 * time.Second
	DefaultTopicsTimeout = 30 * time.Second

	maxPromptRunes  = 6000
	maxPreviewRunes = 4000
)

// Input is the text of a deck plus whatever naming hints came with it.
type Input struct {
	Text     string
	DocTitle string // PDF document info title
	Filename string
}

// CallResult is the outcome of one model call.
type CallResult struct {
	Reply string
	Err   error
}

func (r CallResult) OK() bool {
	return r.Err == nil
}

type Option func(*Extractor)

func WithModelName(name string) Option {
	return func(e *Extractor) { e.ModelName = name }
}

func WithTemperature(t float64) Option {
	return func(e *Extractor) { e.Temperature = t }
}

func WithTimeouts(primary, topics time.Duration) Option {
	return func(e *Extractor) {
		e.Timeout = primary
		e.TopicsTimeout = topics
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) { e.Logger = logger }
}

// Extractor builds models.DeckMetadata from deck text.
type Extractor struct {
	Model         models.Model
	ModelName     string
	Temperature   float64
	Timeout       time.Duration
	TopicsTimeout time.Duration
	Logger        zerolog.Logger
}

func New(model models.Model, opts ...Option) *Extractor {
	e := &Extractor{
		Model:         model,
		Temperature:   DefaultTemperature,
		Timeout:       DefaultTimeout,
		TopicsTimeout: DefaultTopicsTimeout,
		Logger:        log.With().Str("component", "metadata").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// llmFields are the parts of the model reply the extractor uses.
type llmFields struct {
	Title        string
	Description  string
	SystemPrompt *string
	Topics       []string
	Actions      []models.SuggestedAction
}

// Extract runs the primary metadata call, the topics call when needed, and
// the fallbacks for whatever is still missing.
func (e *Extractor) Extract(ctx context.Context, in Input) models.DeckMetadata {
	excerpt := truncate(in.Text, maxPromptRunes)

	var fields llmFields
	primary := e.call(ctx, e.Timeout, prompts.MetadataSystem, prompts.MetadataUser(excerpt))
	if primary.OK() {
		fields = parseFields(ExtractJSONObject(primary.Reply))
	} else {
		e.Logger.Warn().Err(primary.Err).Msg("metadata call failed, using heuristics")
	}

	actions := FilterActions(fields.Actions)
	if len(actions) == 0 {
		actions = HeadingActions(in.Text)
	}

	topics := fields.Topics
	if len(topics) == 0 {
		topics = e.fallbackTopics(ctx, excerpt)
	}

	description := strings.TrimSpace(fields.Description)
	if description == "" {
		description = DefaultDescription
	}

	meta := models.DeckMetadata{
		Title:            ResolveTitle(fields.Title, in.DocTitle, in.Text, in.Filename),
		Description:      description,
		SuggestedActions: nonNilActions(actions),
		SystemPrompt:     fields.SystemPrompt,
		Topics:           nonNilTopics(topics),
		RawPreview:       truncate(in.Text, maxPreviewRunes),
	}

	e.Logger.Info().
		Str("title", meta.Title).
		Int("topics", len(meta.Topics)).
		Int("actions", len(meta.SuggestedActions)).
		Bool("llm", primary.OK()).
		Msg("deck metadata extracted")
	return meta
}

// fallbackTopics asks the model for a bare JSON array of topics. Any failure
// leaves the topics empty.
func (e *Extractor) fallbackTopics(ctx context.Context, excerpt string) []string {
	res := e.call(ctx, e.TopicsTimeout, prompts.TopicsSystem, prompts.TopicsUser(excerpt))
	if !res.OK() {
		e.Logger.Warn().Err(res.Err).Msg("topics call failed")
		return nil
	}

	arr, ok := ExtractJSONArray(res.Reply)
	if !ok {
		e.Logger.Debug().Msg("topics reply had no JSON array")
		return nil
	}

	var topics []string
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" && !isTrivialTopic(s) {
			topics = append(topics, s)
		}
	}
	return topics
}

func (e *Extractor) call(ctx context.Context, timeout time.Duration, system, user string) CallResult {
	if e.Model == nil {
		return CallResult{Err: errors.New("no model configured")}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	temperature := e.Temperature
	reply, err := e.Model.Model_Request(ctx, models.CompletionRequest{
		Model:       e.ModelName,
		Messages:    []models.ProviderMessage{models.SystemMessage(system), models.UserMessage(user)},
		Temperature: &temperature,
	})
	if err != nil {
		return CallResult{Err: err}
	}
	return CallResult{Reply: reply}
}

func parseFields(obj map[string]any) llmFields {
	var f llmFields
	f.Title, _ = obj["title"].(string)
	f.Description, _ = obj["description"].(string)
	if sp, ok := obj["systemPrompt"].(string); ok && strings.TrimSpace(sp) != "" {
		f.SystemPrompt = &sp
	}

	if list, ok := obj["topics"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				f.Topics = append(f.Topics, strings.TrimSpace(s))
			}
		}
	}

	if list, ok := obj["suggestedActions"].([]any); ok {
		for _, v := range list {
			item, ok := v.(map[string]any)
			if !ok {
				continue
			}
			var a models.SuggestedAction
			a.Title, _ = item["title"].(string)
			a.Label, _ = item["label"].(string)
			a.Action, _ = item["action"].(string)
			f.Actions = append(f.Actions, a)
		}
	}
	return f
}

func nonNilActions(a []models.SuggestedAction) []models.SuggestedAction {
	if a == nil {
		return []models.SuggestedAction{}
	}
	return a
}

func nonNilTopics(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}
