package deckchat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Desarso/deckchat/metadata"
	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/models/anthropic"
	"github.com/Desarso/deckchat/models/gemini"
	"github.com/Desarso/deckchat/models/openai"
	"github.com/Desarso/deckchat/pdftext"
	"github.com/Desarso/deckchat/protocol"
	"github.com/Desarso/deckchat/sessions"
	"github.com/rs/zerolog/log"
)

// NewModel creates the LLM provider named by cfg.Provider.
func NewModel(cfg *Config) (models.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(cfg.ChatModelName()), openai.WithSite(cfg.SiteURL, cfg.SiteName)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKeyEnv != "" {
			opts = append(opts, openai.WithAPIKeyEnv(cfg.APIKeyEnv))
		}
		return openai.New(opts...), nil

	case ProviderGemini:
		opts := []gemini.Option{gemini.WithModel(cfg.ChatModelName())}
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKeyEnv != "" {
			opts = append(opts, gemini.WithAPIKeyEnv(cfg.APIKeyEnv))
		}
		return gemini.New(opts...), nil

	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(cfg.ChatModelName()), anthropic.WithMaxTokens(cfg.MaxTokens)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKeyEnv != "" {
			opts = append(opts, anthropic.WithAPIKeyEnv(cfg.APIKeyEnv))
		}
		return anthropic.New(opts...), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Gateway wires the chat and deck-metadata pipelines to one model.
type Gateway struct {
	Config    *Config
	Model     models.Model
	PDF       pdftext.Extractor
	Extractor *metadata.Extractor
}

// NewGateway creates a Gateway around model. A nil model is built from cfg.
func NewGateway(cfg *Config, model models.Model) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if model == nil {
		var err error
		if model, err = NewModel(cfg); err != nil {
			return nil, err
		}
	}

	return &Gateway{
		Config: cfg,
		Model:  model,
		PDF:    pdftext.Extractor{MaxPages: cfg.MaxPDFPages, MaxBytes: cfg.MaxPDFBytes},
		Extractor: metadata.New(model,
			metadata.WithModelName(cfg.MetaModelName()),
			metadata.WithTemperature(cfg.MetaTemperature),
			metadata.WithTimeouts(cfg.MetaTimeout, cfg.TopicsTimeout),
		),
	}, nil
}

// ChatOptions are the completion parameters for chat requests.
func (g *Gateway) ChatOptions() sessions.ChatOptions {
	return sessions.ChatOptions{Model: g.Config.ChatModelName(), Temperature: g.Config.ChatTemperature}
}

// NewChatSession creates a session that streams one chat request with the
// named protocol.
func (g *Gateway) NewChatSession(sessionID, protocolName string) (*ChatSession, error) {
	encoder, err := protocol.New(protocolName)
	if err != nil {
		return nil, err
	}
	return sessions.NewChatSession(sessionID, g.Model, encoder, g.ChatOptions()), nil
}

// PresentationMeta decodes a PDF data URL and synthesizes its metadata. Only
// PDF decoding errors are returned; model failures degrade the result.
func (g *Gateway) PresentationMeta(ctx context.Context, pdfDataURL, filename string) (models.DeckMetadata, error) {
	doc, err := g.PDF.ExtractDataURL(pdfDataURL)
	if err != nil {
		return models.DeckMetadata{}, err
	}
	return g.metadataFor(ctx, doc, filename), nil
}

// PresentationMetaFile is PresentationMeta for a PDF on disk.
func (g *Gateway) PresentationMetaFile(ctx context.Context, path, filename string) (models.DeckMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.DeckMetadata{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := g.PDF.Extract(data)
	if err != nil {
		return models.DeckMetadata{}, err
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	return g.metadataFor(ctx, doc, filename), nil
}

func (g *Gateway) metadataFor(ctx context.Context, doc pdftext.Document, filename string) models.DeckMetadata {
	log.Debug().Int("pages", doc.PageCount).Int("read", len(doc.Pages)).Str("filename", filename).Msg("extracting deck metadata")
	return g.Extractor.Extract(ctx, metadata.Input{
		Text:     doc.Text(),
		DocTitle: doc.Title,
		Filename: filename,
	})
}
